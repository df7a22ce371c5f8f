package terminus

import (
	"context"

	"confnode/internal/domain"
)

// Plain answers every request with a bare node
type Plain struct {
	deps domain.Deps
}

// NewPlain creates the plain terminus
func NewPlain(deps domain.Deps) *Plain {
	return &Plain{deps: deps}
}

// Name returns the terminus identifier
func (p *Plain) Name() string {
	return "plain"
}

// Find returns a node with only its name set
func (p *Plain) Find(ctx context.Context, req Request) (*domain.Node, error) {
	return domain.NewNode(req.Name, p.deps, domain.WithSource(p.Name()))
}
