// Package facts provides the facts termini: the places a node's facts
// snapshot can be found, gathered or cached.
package facts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"confnode/internal/config"
	"confnode/internal/domain"
)

// Store finds the facts snapshot for a node.
// A nil snapshot with a nil error means the store has no record.
type Store interface {
	domain.FactsFinder
	Name() string
}

// ErrReadOnly is returned when no store accepts uploads or deletions
var ErrReadOnly = errors.New("facts store is read-only")

// Saver is implemented by stores that accept uploaded facts
type Saver interface {
	Save(ctx context.Context, facts *domain.Facts) error
}

// EnvironmentSaver is implemented by stores that record the environment
// a snapshot was uploaded from
type EnvironmentSaver interface {
	SaveForEnvironment(ctx context.Context, facts *domain.Facts, environment string) error
}

// Deleter is implemented by stores that can drop a snapshot
type Deleter interface {
	Delete(ctx context.Context, name string) error
}

// SaveTo writes facts to store, recording env when the store supports it.
// Stores that accept no uploads yield ErrReadOnly.
func SaveTo(ctx context.Context, store Store, facts *domain.Facts, env *domain.Environment) error {
	if es, ok := store.(EnvironmentSaver); ok {
		return es.SaveForEnvironment(ctx, facts, envName(env))
	}
	if saver, ok := store.(Saver); ok {
		return saver.Save(ctx, facts)
	}
	return fmt.Errorf("%w: %s", ErrReadOnly, store.Name())
}

// DeleteFrom drops the snapshot for name, or yields ErrReadOnly
func DeleteFrom(ctx context.Context, store Store, name string) error {
	if d, ok := store.(Deleter); ok {
		return d.Delete(ctx, name)
	}
	return fmt.Errorf("%w: %s", ErrReadOnly, store.Name())
}

// New builds the facts store described by cfg. Multiple sources are
// combined into a Chain and an optional Redis cache is layered on top.
func New(cfg config.FactsTerminusConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var stores []Store
	for _, src := range cfg.Sources {
		store, err := newSource(src, cfg, logger)
		if err != nil {
			closeAll(stores)
			return nil, fmt.Errorf("facts source %s: %w", src, err)
		}
		stores = append(stores, store)
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("no facts sources configured")
	}

	var store Store = stores[0]
	if len(stores) > 1 {
		store = NewChain(logger, stores...)
	}

	if cfg.Cache != nil {
		store = NewCache(store, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB,
			WithTTL(config.DurationOr(cfg.Cache.TTL, DefaultCacheTTL)),
			WithCacheLogger(logger))
	}

	logger.Info("facts terminus ready", "store", store.Name())
	return store, nil
}

func newSource(src config.FactsSourceType, cfg config.FactsTerminusConfig, logger *slog.Logger) (Store, error) {
	switch src {
	case config.FactsSourceYAML:
		return NewYAMLStore(cfg.YAML.Path), nil
	case config.FactsSourceSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	case config.FactsSourceSSH:
		return NewSSHGatherer(cfg.SSH, logger)
	case config.FactsSourceNmap:
		return NewNmapScanner(logger,
			WithPortRange(cfg.Nmap.Ports),
			WithServiceDetection(cfg.Nmap.ServiceDetection),
			WithTimeout(config.DurationOr(cfg.Nmap.Timeout, defaultScanTimeout)),
		), nil
	default:
		return nil, fmt.Errorf("unknown facts source %q", src)
	}
}

// Close releases resources held by store, if any
func Close(store Store) error {
	if c, ok := store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func closeAll(stores []Store) {
	for _, s := range stores {
		_ = Close(s)
	}
}

// validName rejects node names that cannot be used as a record key
func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`)
}

func envName(env *domain.Environment) string {
	if env == nil {
		return ""
	}
	return env.Name
}
