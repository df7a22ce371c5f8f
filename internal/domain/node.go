package domain

import (
	"context"
	"fmt"
	"time"
)

// ParamEnvironment is the parameter that carries the node's environment name
const ParamEnvironment = "environment"

// Node represents one managed machine for a single lookup/compile cycle
type Node struct {
	name        string
	classes     []string
	parameters  map[string]any
	facts       *Facts
	env         envBinding
	trustedData any
	serverFacts map[string]any
	time        time.Time

	// Source and IPAddress are descriptive only
	Source    string
	IPAddress string

	deps Deps
}

// NewNode creates a node. The name is required; an environment option
// is resolved immediately through the registry in deps.
func NewNode(name string, deps Deps, opts ...Option) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: node name must not be empty", ErrInvalidArgument)
	}

	var o nodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := &Node{
		name:       name,
		classes:    o.classes,
		parameters: o.parameters,
		facts:      o.facts,
		time:       time.Now(),
		Source:     o.source,
		IPAddress:  o.ipaddress,
		deps:       deps,
	}
	if n.classes == nil {
		n.classes = []string{}
	}
	if n.parameters == nil {
		n.parameters = make(map[string]any)
	}

	switch {
	case o.env != nil:
		n.SetEnvironment(o.env)
	case o.envName != "":
		if err := n.SetEnvironmentName(o.envName); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// Name returns the node's primary key
func (n *Node) Name() string {
	return n.name
}

func (n *Node) String() string {
	return n.name
}

// Classes returns the classes declared for the node
func (n *Node) Classes() []string {
	return n.classes
}

// SetClasses replaces the declared classes
func (n *Node) SetClasses(classes ...string) {
	n.classes = append([]string{}, classes...)
}

// Parameters returns the live parameter map
func (n *Node) Parameters() map[string]any {
	return n.parameters
}

// SetParameter sets a parameter, overwriting any existing value
func (n *Node) SetParameter(key string, value any) {
	n.parameters[key] = value
}

// Parameter gets a parameter value
func (n *Node) Parameter(key string) (any, bool) {
	val, ok := n.parameters[key]
	return val, ok
}

// ParameterString gets a parameter as a string
func (n *Node) ParameterString(key string) string {
	val, ok := n.Parameter(key)
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// Facts returns the facts snapshot held by the node, if any
func (n *Node) Facts() *Facts {
	return n.facts
}

// Time returns when the node was created
func (n *Node) Time() time.Time {
	return n.time
}

// ServerFacts returns the server facts added to the node
func (n *Node) ServerFacts() map[string]any {
	return n.serverFacts
}

// Environment returns the node's environment, resolving it on first use.
//
// Resolution order: the "environment" parameter, then the bound
// environment name, then the default environment from settings.
// The result is cached for the lifetime of the node.
func (n *Node) Environment() (*Environment, error) {
	if r, ok := n.env.(resolvedEnv); ok {
		return r.env, nil
	}

	if val, ok := n.parameters[ParamEnvironment]; ok && val != nil {
		if env, ok := val.(*Environment); ok {
			n.SetEnvironment(env)
			return env, nil
		}
		if name := fmt.Sprint(val); name != "" {
			return n.resolve(name)
		}
	}

	if u, ok := n.env.(unresolvedEnv); ok && u != "" {
		return n.resolve(string(u))
	}

	name := n.deps.Settings.DefaultEnvironment
	if name == "" {
		return nil, fmt.Errorf("%w: no default environment configured for node %s", ErrEnvironmentNotFound, n.name)
	}
	return n.resolve(name)
}

func (n *Node) resolve(name string) (*Environment, error) {
	if err := n.SetEnvironmentName(name); err != nil {
		return nil, err
	}
	return n.env.(resolvedEnv).env, nil
}

// SetEnvironmentName looks up the named environment and binds it
func (n *Node) SetEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: environment name must not be empty", ErrInvalidArgument)
	}
	if n.deps.Environments == nil {
		return fmt.Errorf("%w: %s (no environment registry)", ErrEnvironmentNotFound, name)
	}

	env, err := n.deps.Environments.Get(name)
	if err != nil {
		return err
	}
	if env == nil {
		return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
	}
	n.SetEnvironment(env)
	return nil
}

// SetEnvironment binds an already resolved environment
func (n *Node) SetEnvironment(env *Environment) {
	if env == nil {
		n.env = nil
		return
	}
	n.env = resolvedEnv{env: env}
}

// BindEnvironmentName records an environment name without looking it up.
// It is ignored once the environment has been resolved.
func (n *Node) BindEnvironmentName(name string) {
	if n.HasEnvironmentInstance() {
		return
	}
	if name == "" {
		n.env = nil
		return
	}
	n.env = unresolvedEnv(name)
}

// EnvironmentName returns the bound environment name without resolving it
func (n *Node) EnvironmentName() string {
	if n.env == nil {
		return ""
	}
	return n.env.envName()
}

// HasEnvironmentInstance reports whether the environment has been resolved
func (n *Node) HasEnvironmentInstance() bool {
	_, ok := n.env.(resolvedEnv)
	return ok
}

// Merge adds every key not already present in parameters, then makes sure
// the "environment" parameter carries the resolved environment name.
func (n *Node) Merge(params map[string]any) error {
	for key, value := range params {
		if _, exists := n.parameters[key]; exists {
			continue
		}
		n.parameters[key] = value
	}
	return n.ensureEnvironmentParameter()
}

func (n *Node) ensureEnvironmentParameter() error {
	if val, ok := n.parameters[ParamEnvironment]; ok && val != nil {
		return nil
	}
	env, err := n.Environment()
	if err != nil {
		return err
	}
	n.parameters[ParamEnvironment] = env.Name
	return nil
}

// FactMerge retrieves the node's facts from finder and merges them into
// parameters. Any store failure is returned as a *FactsRetrievalError.
func (n *Node) FactMerge(ctx context.Context, finder FactsFinder) error {
	env, err := n.Environment()
	if err != nil {
		return err
	}

	facts, err := finder.Find(ctx, n.name, env)
	if err != nil {
		return &FactsRetrievalError{Node: n.name, Err: err}
	}
	return n.MergeFacts(facts)
}

// MergeFacts stores facts on the node and merges their values into
// parameters. Facts never set the "environment" parameter.
func (n *Node) MergeFacts(facts *Facts) error {
	n.facts = facts
	if facts == nil {
		return nil
	}

	if dropped := facts.Sanitize(); len(dropped) > 0 {
		n.deps.logger().Warn("dropped reserved facts", "node", n.name, "facts", dropped)
	}

	values := make(map[string]any, len(facts.Values))
	for key, value := range facts.Values {
		if key == ParamEnvironment {
			continue
		}
		values[key] = value
	}
	return n.Merge(values)
}

// AddExtraFacts overlays values onto the held facts snapshot and merges
// them into parameters under the usual merge rule.
func (n *Node) AddExtraFacts(extra map[string]any) error {
	if n.facts == nil {
		n.facts = NewFacts(n.name, nil)
	}
	if n.facts.Values == nil {
		n.facts.Values = make(map[string]any)
	}
	for key, value := range extra {
		n.facts.Values[key] = value
	}
	return n.MergeFacts(n.facts)
}

// AddServerFacts merges server-originated facts into parameters. When
// trusted server facts are enabled they are recorded in the trusted sink
// first.
func (n *Node) AddServerFacts(facts map[string]any) error {
	if n.deps.Settings.TrustedServerFacts {
		if n.deps.Trusted != nil {
			n.deps.Trusted.RecordServerFacts(n.name, copyValues(facts))
		} else {
			n.deps.logger().Warn("trusted server facts enabled without a trusted sink", "node", n.name)
		}
	}

	if err := n.Merge(facts); err != nil {
		return err
	}

	n.serverFacts = copyValues(facts)
	if env, err := n.Environment(); err == nil {
		n.serverFacts[ParamEnvironment] = env.Name
	}
	return nil
}

// TrustedData returns the trusted payload, if set
func (n *Node) TrustedData() any {
	return n.trustedData
}

// SetTrustedData stores the trusted payload. Replacing an existing payload
// logs a warning and still stores the new value.
func (n *Node) SetTrustedData(data any) {
	if n.trustedData != nil {
		n.deps.logger().Warn("trusted node data modified", "node", n.name)
	}
	n.trustedData = data
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
