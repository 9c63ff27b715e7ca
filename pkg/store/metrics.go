package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatstore_store_commits_total",
		Help: "Conversation document commits by operation.",
	}, []string{"op"})

	commitErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatstore_store_commit_errors_total",
		Help: "Failed conversation document commits by operation.",
	}, []string{"op"})

	gateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatstore_store_gate_wait_seconds",
		Help:    "Time spent waiting on a conversation serialization gate.",
		Buckets: prometheus.DefBuckets,
	})
)
