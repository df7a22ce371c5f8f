// Package domain defines the node data model for confnode.
//
// A Node is the in-memory view of one managed machine for a single
// lookup/compile cycle. It combines declared classes, key/value parameters,
// facts discovered on the machine and the environment the node belongs to,
// and normalizes them into the parameter set a compiler consumes.
//
// # Core Types
//
// Node holds the record and its derived lookups: lazy environment
// resolution, fact and parameter merging, and the candidate names used by
// name-based matching.
//
// Environment is a named configuration namespace. Nodes resolve an
// environment name through an EnvironmentRegistry and memoize the result.
//
// Facts is a snapshot of key/value data reported for a machine. Snapshots
// come from a FactsFinder and are sanitized before they reach parameters.
//
// # Collaborators
//
// Process-wide settings and the external collaborators a node consults are
// passed explicitly through Deps at construction time. Nothing in this
// package reads global state.
//
// # Merge Rule
//
// Merging never overwrites an existing parameter: explicit configuration
// beats discovered facts. After every merge the "environment" parameter is
// populated with the resolved environment name when it is missing.
package domain
