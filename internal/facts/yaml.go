package facts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"confnode/internal/domain"

	"gopkg.in/yaml.v3"
)

// FactsYAML is the on-disk shape of facts/<name>.yaml.
// A document without a values key is read as a flat map of facts.
type FactsYAML struct {
	Name       string         `yaml:"name,omitempty"`
	Values     map[string]any `yaml:"values"`
	Timestamp  time.Time      `yaml:"timestamp,omitempty"`
	Expiration *time.Time     `yaml:"expiration,omitempty"`
}

// YAMLStore reads and writes facts/<name>.yaml files
type YAMLStore struct {
	dir string
}

// NewYAMLStore creates a store rooted at dir
func NewYAMLStore(dir string) *YAMLStore {
	return &YAMLStore{dir: dir}
}

// Name returns the store identifier
func (s *YAMLStore) Name() string {
	return "yaml"
}

func (s *YAMLStore) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// Find loads the facts file for name. An expired snapshot is absent.
func (s *YAMLStore) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: node name %q", domain.ErrInvalidArgument, name)
	}

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read facts: %w", err)
	}

	facts, err := ParseYAML(name, data)
	if err != nil {
		return nil, err
	}
	if facts.Expired(time.Now()) {
		return nil, nil
	}
	return facts, nil
}

// ParseYAML parses a facts document
func ParseYAML(name string, data []byte) (*domain.Facts, error) {
	var doc FactsYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse facts for %s: %w", name, err)
	}

	if doc.Values == nil {
		var flat map[string]any
		if err := yaml.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("failed to parse facts for %s: %w", name, err)
		}
		doc = FactsYAML{Values: flat}
	}

	facts := domain.NewFacts(name, doc.Values)
	if !doc.Timestamp.IsZero() {
		facts.Timestamp = doc.Timestamp
	}
	facts.Expiration = doc.Expiration
	return facts, nil
}

// Save writes facts to <dir>/<name>.yaml
func (s *YAMLStore) Save(ctx context.Context, facts *domain.Facts) error {
	if facts == nil || !validName(facts.Name) {
		return fmt.Errorf("%w: facts must carry a valid node name", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create facts dir: %w", err)
	}

	data, err := yaml.Marshal(FactsYAML{
		Name:       facts.Name,
		Values:     facts.Values,
		Timestamp:  facts.Timestamp,
		Expiration: facts.Expiration,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal facts: %w", err)
	}

	tmp := s.path(facts.Name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write facts: %w", err)
	}
	return os.Rename(tmp, s.path(facts.Name))
}

// Delete removes <dir>/<name>.yaml. A missing file is not an error.
func (s *YAMLStore) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return fmt.Errorf("%w: node name %q", domain.ErrInvalidArgument, name)
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete facts: %w", err)
	}
	return nil
}
