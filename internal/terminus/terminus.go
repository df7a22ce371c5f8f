// Package terminus finds node records. Exactly one terminus serves node
// lookups; it is chosen by configuration.
package terminus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"confnode/internal/config"
	"confnode/internal/domain"
)

// Request identifies the node being looked up
type Request struct {
	Name string
	// Environment is the environment the agent asked for, if any
	Environment string
}

// Terminus finds the node record for a request.
// A nil node with a nil error means the terminus has no record.
type Terminus interface {
	Name() string
	Find(ctx context.Context, req Request) (*domain.Node, error)
}

// New builds the terminus selected by cfg.Type
func New(cfg config.NodeTerminusConfig, deps domain.Deps, logger *slog.Logger) (Terminus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		t   Terminus
		err error
	)
	switch cfg.Type {
	case config.NodeTerminusPlain, "":
		t = NewPlain(deps)
	case config.NodeTerminusYAML:
		t = NewYAML(cfg.YAML.Path, deps)
	case config.NodeTerminusConsul:
		t, err = NewConsul(cfg.Consul, deps)
	case config.NodeTerminusMySQL:
		t, err = NewMySQL(cfg.MySQL.DSN, deps)
	default:
		err = fmt.Errorf("unknown node terminus %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("node terminus ready", "terminus", t.Name())
	return t, nil
}

// Close releases resources held by t, if any
func Close(t Terminus) error {
	if c, ok := t.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// fromRecord builds a node from a stored data hash. The record's name
// defaults to the requested one.
func fromRecord(req Request, data map[string]any, source string, deps domain.Deps) (*domain.Node, error) {
	if data == nil {
		data = make(map[string]any)
	}
	if _, ok := data["name"]; !ok {
		data["name"] = req.Name
	}
	if _, ok := data["source"]; !ok {
		data["source"] = source
	}

	node, err := domain.FromData(data, deps)
	if err != nil {
		return nil, fmt.Errorf("node record %s: %w", req.Name, err)
	}
	return node, nil
}

// validName rejects node names that cannot be used as a record key
func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`)
}
