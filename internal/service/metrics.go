package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// NodeLookups counts node lookups by terminus and outcome
	NodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confnode_node_lookups_total",
			Help: "Total number of node lookups",
		},
		[]string{"terminus", "result"},
	)

	// FactMerges counts fact merges by outcome
	FactMerges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confnode_fact_merges_total",
			Help: "Total number of fact merges",
		},
		[]string{"result"},
	)

	// FactRetrievalSeconds tracks how long facts stores take to answer
	FactRetrievalSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "confnode_fact_retrieval_seconds",
			Help:    "Time spent retrieving facts for a node",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Lookup and merge outcomes
const (
	resultFound    = "found"
	resultNotFound = "not_found"
	resultError    = "error"
	resultMerged   = "merged"
	resultAbsent   = "absent"
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(NodeLookups)
	prometheus.MustRegister(FactMerges)
	prometheus.MustRegister(FactRetrievalSeconds)
}
