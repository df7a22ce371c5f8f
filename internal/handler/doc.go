// Package handler implements the confnode HTTP API.
//
// Routes:
//
//	GET /api/nodes/{name}            node data hash (?environment=, ?format=json|yaml)
//	GET /api/nodes/{name}/names      candidate names for matching
//	GET /api/nodes/{name}/trusted    trusted server facts recorded for the node
//	GET /api/facts/{name}            stored facts snapshot
//	PUT /api/facts/{name}            upload a facts snapshot (?environment=)
//	DELETE /api/facts/{name}         drop the stored facts snapshot
//	GET /api/events                  Server-Sent Events stream of lookups and uploads
//	GET /health                      liveness
//	GET /metrics                     Prometheus metrics
package handler
