// Package environment resolves environment names for nodes.
package environment

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"confnode/internal/domain"
)

// DirRegistry treats each subdirectory of a root path as an environment.
// Loaded environments are cached until Invalidate is called.
type DirRegistry struct {
	root   string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.Environment
}

// NewDirRegistry creates a registry over root
func NewDirRegistry(root string, logger *slog.Logger) *DirRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirRegistry{
		root:   root,
		logger: logger,
		cache:  make(map[string]*domain.Environment),
	}
}

// Root returns the directory holding the environments
func (r *DirRegistry) Root() string {
	return r.root
}

// Get returns the named environment, loading it on first use
func (r *DirRegistry) Get(name string) (*domain.Environment, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", domain.ErrEnvironmentNotFound, name)
	}

	r.mu.RLock()
	env, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return env, nil
	}

	dir := filepath.Join(r.root, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", domain.ErrEnvironmentNotFound, name)
	}

	env, err = LoadYAML(name, dir)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Another caller may have loaded it first; keep a single instance
	if cached, ok := r.cache[name]; ok {
		env = cached
	} else {
		r.cache[name] = env
	}
	r.mu.Unlock()

	r.logger.Debug("environment loaded", "environment", name, "dir", dir)
	return env, nil
}

// List returns the names of all environment directories, sorted
func (r *DirRegistry) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && validName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate drops every cached environment
func (r *DirRegistry) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*domain.Environment)
	r.mu.Unlock()
	r.logger.Info("environment cache invalidated", "root", r.root)
}

// validName rejects names that would escape the root directory
func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`)
}

// StaticRegistry is a fixed, map-backed registry
type StaticRegistry struct {
	envs map[string]*domain.Environment
}

// NewStaticRegistry creates a registry holding envs
func NewStaticRegistry(envs ...*domain.Environment) *StaticRegistry {
	r := &StaticRegistry{envs: make(map[string]*domain.Environment, len(envs))}
	for _, env := range envs {
		r.envs[env.Name] = env
	}
	return r
}

// Get returns the named environment
func (r *StaticRegistry) Get(name string) (*domain.Environment, error) {
	env, ok := r.envs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrEnvironmentNotFound, name)
	}
	return env, nil
}
