package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a node is built from bad input
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEnvironmentNotFound is returned when a named environment does not exist
	ErrEnvironmentNotFound = errors.New("environment not found")
	// ErrNodeNotFound is returned when no terminus has a record for a node
	ErrNodeNotFound = errors.New("node not found")
)

// FactsRetrievalError wraps any failure reported by a facts store
type FactsRetrievalError struct {
	Node string
	Err  error
}

func (e *FactsRetrievalError) Error() string {
	return fmt.Sprintf("could not retrieve facts for %s: %v", e.Node, e.Err)
}

func (e *FactsRetrievalError) Unwrap() error {
	return e.Err
}
