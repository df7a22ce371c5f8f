package domain

import "fmt"

// ToData exports the node as a plain mapping with "name", "environment",
// and "classes" and "parameters" when they are non-empty. The exported
// environment is the one Environment resolves to. Facts, trusted data,
// time, source and address are not exported.
func (n *Node) ToData() (map[string]any, error) {
	env, err := n.Environment()
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"name":        n.name,
		"environment": env.Name,
	}
	if len(n.classes) > 0 {
		data["classes"] = append([]string{}, n.classes...)
	}
	if len(n.parameters) > 0 {
		data["parameters"] = copyValues(n.parameters)
	}
	return data, nil
}

// FromData rebuilds a node from a mapping produced by ToData
func FromData(data map[string]any, deps Deps) (*Node, error) {
	raw, ok := data["name"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: node data is missing name", ErrInvalidArgument)
	}
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: node name must be a string, got %T", ErrInvalidArgument, raw)
	}

	opts, err := OptionsFromMap(data)
	if err != nil {
		return nil, err
	}
	return NewNode(name, deps, opts...)
}
