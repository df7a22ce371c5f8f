package domain

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ReservedFactNames cannot be supplied by a managed machine
var ReservedFactNames = []string{"trusted", "server_facts", "facts"}

// Facts is a snapshot of key/value data reported for a machine
type Facts struct {
	Name       string         `json:"name" yaml:"name"`
	Values     map[string]any `json:"values" yaml:"values"`
	Timestamp  time.Time      `json:"timestamp" yaml:"timestamp"`
	Expiration *time.Time     `json:"expiration,omitempty" yaml:"expiration,omitempty"`
}

// NewFacts creates a snapshot stamped with the current time
func NewFacts(name string, values map[string]any) *Facts {
	if values == nil {
		values = make(map[string]any)
	}
	return &Facts{
		Name:      name,
		Values:    values,
		Timestamp: time.Now(),
	}
}

// FactsFinder looks up the facts snapshot for a node.
// A nil snapshot with a nil error means the store has no record.
type FactsFinder interface {
	Find(ctx context.Context, name string, env *Environment) (*Facts, error)
}

// Value gets a single fact
func (f *Facts) Value(key string) (any, bool) {
	if f == nil || f.Values == nil {
		return nil, false
	}
	val, ok := f.Values[key]
	return val, ok
}

// Expired reports whether the snapshot is past its expiration
func (f *Facts) Expired(now time.Time) bool {
	return f.Expiration != nil && now.After(*f.Expiration)
}

// Sanitize drops reserved fact names and normalizes values into plain
// strings, numbers, bools, slices and string-keyed maps. It returns the
// dropped names in sorted order.
func (f *Facts) Sanitize() []string {
	if f == nil || f.Values == nil {
		return nil
	}

	var dropped []string
	for key, value := range f.Values {
		if isReservedFact(key) {
			delete(f.Values, key)
			dropped = append(dropped, key)
			continue
		}
		f.Values[key] = sanitizeValue(value)
	}
	sort.Strings(dropped)
	return dropped
}

func isReservedFact(key string) bool {
	for _, reserved := range ReservedFactNames {
		if key == reserved {
			return true
		}
	}
	return false
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case nil, string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[key] = sanitizeValue(inner)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[fmt.Sprint(key)] = sanitizeValue(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[key] = inner
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = sanitizeValue(inner)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = inner
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = inner
		}
		return out
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}
