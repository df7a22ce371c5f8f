package terminus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"confnode/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAML reads node records from <dir>/<name>.yaml
type YAML struct {
	dir  string
	deps domain.Deps
}

// NewYAML creates a terminus over dir
func NewYAML(dir string, deps domain.Deps) *YAML {
	return &YAML{dir: dir, deps: deps}
}

// Name returns the terminus identifier
func (y *YAML) Name() string {
	return "yaml"
}

// Find loads the record for req.Name
func (y *YAML) Find(ctx context.Context, req Request) (*domain.Node, error) {
	if !validName(req.Name) {
		return nil, fmt.Errorf("%w: node name %q", domain.ErrInvalidArgument, req.Name)
	}

	data, err := os.ReadFile(filepath.Join(y.dir, req.Name+".yaml"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node record: %w", err)
	}

	var record map[string]any
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse node record %s: %w", req.Name, err)
	}

	return fromRecord(req, record, y.Name(), y.deps)
}

// Save writes node's data hash to <dir>/<name>.yaml
func (y *YAML) Save(ctx context.Context, node *domain.Node) error {
	data, err := node.ToData()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal node record: %w", err)
	}
	if err := os.MkdirAll(y.dir, 0755); err != nil {
		return fmt.Errorf("failed to create node dir: %w", err)
	}
	return os.WriteFile(filepath.Join(y.dir, node.Name()+".yaml"), out, 0644)
}
