package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestFactsSanitize(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	facts := NewFacts("n", map[string]any{
		"os":           "linux",
		"trusted":      "spoofed",
		"server_facts": map[string]any{},
		"boot":         stamp,
		"raw":          []byte("bytes"),
		"nested":       map[any]any{"k": []string{"a"}},
	})

	dropped := facts.Sanitize()

	if !reflect.DeepEqual(dropped, []string{"server_facts", "trusted"}) {
		t.Errorf("unexpected dropped facts: %v", dropped)
	}
	if _, ok := facts.Value("trusted"); ok {
		t.Error("expected trusted to be dropped")
	}
	if got := facts.Values["boot"]; got != "2024-05-01T12:00:00Z" {
		t.Errorf("expected RFC3339 time, got %v", got)
	}
	if got := facts.Values["raw"]; got != "bytes" {
		t.Errorf("expected string, got %v", got)
	}
	nested, ok := facts.Values["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected string-keyed map, got %T", facts.Values["nested"])
	}
	if !reflect.DeepEqual(nested["k"], []any{"a"}) {
		t.Errorf("unexpected nested value: %v", nested["k"])
	}
}

func TestFactsExpired(t *testing.T) {
	now := time.Now()
	facts := NewFacts("n", nil)
	if facts.Expired(now) {
		t.Error("facts without expiration should not expire")
	}
	past := now.Add(-time.Minute)
	facts.Expiration = &past
	if !facts.Expired(now) {
		t.Error("expected facts to be expired")
	}
}

func TestNilFactsValue(t *testing.T) {
	var facts *Facts
	if _, ok := facts.Value("x"); ok {
		t.Error("expected no value on nil facts")
	}
}
