// Package service implements node lookup for confnode.
//
// NodeService coordinates the node terminus, the facts store and the
// server facts: it finds the node record, merges the node's facts and
// the server's facts into its parameters, and hands back a node ready
// for compilation.
//
// # Event System
//
// Lookups and facts uploads are published on an EventBus so the HTTP
// layer can stream them to connected clients via Server-Sent Events.
//
// # Metrics
//
// Lookup and merge outcomes are counted in Prometheus metrics registered
// with the default registry.
package service
