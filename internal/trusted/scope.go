// Package trusted keeps the server facts recorded as trusted for each node.
package trusted

import (
	"sync"
)

// Scope is a concurrency-safe record of trusted server facts per node
type Scope struct {
	mu    sync.RWMutex
	nodes map[string]map[string]any
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{nodes: make(map[string]map[string]any)}
}

// RecordServerFacts stores a copy of facts for node, replacing any earlier record
func (s *Scope) RecordServerFacts(node string, facts map[string]any) {
	cp := make(map[string]any, len(facts))
	for k, v := range facts {
		cp[k] = v
	}

	s.mu.Lock()
	s.nodes[node] = cp
	s.mu.Unlock()
}

// ServerFacts returns a copy of the trusted facts for node
func (s *Scope) ServerFacts(node string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facts, ok := s.nodes[node]
	if !ok {
		return nil, false
	}
	cp := make(map[string]any, len(facts))
	for k, v := range facts {
		cp[k] = v
	}
	return cp, true
}

// Forget removes the record for node
func (s *Scope) Forget(node string) {
	s.mu.Lock()
	delete(s.nodes, node)
	s.mu.Unlock()
}
