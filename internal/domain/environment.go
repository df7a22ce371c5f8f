package domain

// Environment is a named configuration namespace
type Environment struct {
	Name          string         `json:"name" yaml:"name"`
	Manifest      string         `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	ModulePath    []string       `json:"modulepath,omitempty" yaml:"modulepath,omitempty"`
	ConfigVersion string         `json:"config_version,omitempty" yaml:"config_version,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// NewEnvironment creates an environment with no settings beyond its name
func NewEnvironment(name string) *Environment {
	return &Environment{Name: name}
}

func (e *Environment) String() string {
	return e.Name
}

// EnvironmentRegistry resolves environment names.
// Get returns an error wrapping ErrEnvironmentNotFound for unknown names.
type EnvironmentRegistry interface {
	Get(name string) (*Environment, error)
}

// envBinding is the node's environment reference: either a name that has
// not been looked up yet, or an environment that has been resolved.
type envBinding interface {
	envName() string
}

type unresolvedEnv string

func (u unresolvedEnv) envName() string { return string(u) }

type resolvedEnv struct {
	env *Environment
}

func (r resolvedEnv) envName() string { return r.env.Name }
