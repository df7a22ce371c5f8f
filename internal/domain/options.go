package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Option configures a node at construction
type Option func(*nodeOptions)

type nodeOptions struct {
	classes    []string
	parameters map[string]any
	facts      *Facts
	envName    string
	env        *Environment
	source     string
	ipaddress  string
}

// WithClasses sets the classes applied to the node
func WithClasses(classes ...string) Option {
	return func(o *nodeOptions) {
		o.classes = append([]string{}, classes...)
	}
}

// WithParameters sets the parameter map. The map is stored as given.
func WithParameters(params map[string]any) Option {
	return func(o *nodeOptions) {
		o.parameters = params
	}
}

// WithFacts attaches a facts snapshot without merging it
func WithFacts(facts *Facts) Option {
	return func(o *nodeOptions) {
		o.facts = facts
	}
}

// WithEnvironmentName resolves the named environment at construction
func WithEnvironmentName(name string) Option {
	return func(o *nodeOptions) {
		o.envName = name
		o.env = nil
	}
}

// WithEnvironment binds an already resolved environment
func WithEnvironment(env *Environment) Option {
	return func(o *nodeOptions) {
		o.env = env
		o.envName = ""
	}
}

// WithSource records where the node record came from
func WithSource(source string) Option {
	return func(o *nodeOptions) {
		o.source = source
	}
}

// WithIPAddress records the node's address
func WithIPAddress(ip string) Option {
	return func(o *nodeOptions) {
		o.ipaddress = ip
	}
}

// optionsBag is the loosely typed shape accepted by OptionsFromMap
type optionsBag struct {
	Classes     []string       `mapstructure:"classes"`
	Parameters  map[string]any `mapstructure:"parameters"`
	Environment string         `mapstructure:"environment"`
	Source      string         `mapstructure:"source"`
	IPAddress   string         `mapstructure:"ipaddress"`
}

// OptionsFromMap converts an options bag into node options. "classes" may
// be a single string or a list; "environment" may be a name or an
// *Environment; "facts" may be a *Facts. Unknown keys are ignored.
func OptionsFromMap(m map[string]any) ([]Option, error) {
	var opts []Option
	input := make(map[string]any, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case *Environment:
			opts = append(opts, WithEnvironment(v))
			continue
		case *Facts:
			opts = append(opts, WithFacts(v))
			continue
		}
		input[key] = value
	}

	var bag optionsBag
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &bag,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create options decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if bag.Classes != nil {
		opts = append(opts, WithClasses(bag.Classes...))
	}
	if bag.Parameters != nil {
		opts = append(opts, WithParameters(bag.Parameters))
	}
	if bag.Environment != "" {
		opts = append(opts, WithEnvironmentName(bag.Environment))
	}
	if bag.Source != "" {
		opts = append(opts, WithSource(bag.Source))
	}
	if bag.IPAddress != "" {
		opts = append(opts, WithIPAddress(bag.IPAddress))
	}
	return opts, nil
}
