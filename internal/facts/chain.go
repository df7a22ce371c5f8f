package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"confnode/internal/domain"
)

// Chain consults several stores in order. When more than one store has
// facts for a node the values are combined and the earlier store wins
// for any key both report.
type Chain struct {
	stores []Store
	logger *slog.Logger
}

// NewChain creates a chain over stores
func NewChain(logger *slog.Logger, stores ...Store) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{stores: stores, logger: logger}
}

// Name lists the chained stores
func (c *Chain) Name() string {
	names := make([]string, len(c.stores))
	for i, s := range c.stores {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Find merges the snapshots of every store. Absent from all stores
// returns nil.
func (c *Chain) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	var merged *domain.Facts

	for _, store := range c.stores {
		facts, err := store.Find(ctx, name, env)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", store.Name(), err)
		}
		if facts == nil {
			continue
		}

		if merged == nil {
			merged = domain.NewFacts(name, nil)
			merged.Timestamp = facts.Timestamp
			merged.Expiration = facts.Expiration
		}
		added := 0
		for k, v := range facts.Values {
			if _, exists := merged.Values[k]; exists {
				continue
			}
			merged.Values[k] = v
			added++
		}
		c.logger.Debug("facts source consulted", "node", name, "source", store.Name(), "added", added)
	}

	return merged, nil
}

// Save writes to the first store that accepts uploads
func (c *Chain) Save(ctx context.Context, facts *domain.Facts) error {
	return c.SaveForEnvironment(ctx, facts, "")
}

// SaveForEnvironment writes to the first store that accepts uploads,
// passing environment on to stores that record it
func (c *Chain) SaveForEnvironment(ctx context.Context, facts *domain.Facts, environment string) error {
	for _, store := range c.stores {
		if es, ok := store.(EnvironmentSaver); ok {
			return es.SaveForEnvironment(ctx, facts, environment)
		}
		if saver, ok := store.(Saver); ok {
			return saver.Save(ctx, facts)
		}
	}
	return fmt.Errorf("%w: no facts source in %s accepts uploads", ErrReadOnly, c.Name())
}

// Delete drops the snapshot from every store that supports it
func (c *Chain) Delete(ctx context.Context, name string) error {
	deleted := false
	for _, store := range c.stores {
		d, ok := store.(Deleter)
		if !ok {
			continue
		}
		if err := d.Delete(ctx, name); err != nil {
			return fmt.Errorf("%s: %w", store.Name(), err)
		}
		deleted = true
	}
	if !deleted {
		return fmt.Errorf("%w: no facts source in %s accepts deletions", ErrReadOnly, c.Name())
	}
	return nil
}

// Close closes every chained store
func (c *Chain) Close() error {
	var first error
	for _, s := range c.stores {
		if err := Close(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
