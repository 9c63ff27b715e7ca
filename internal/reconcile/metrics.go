package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_reconcile_sweeps_total",
		Help: "Number of orphan-blob sweeps started.",
	})
	sweepErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_reconcile_sweep_errors_total",
		Help: "Number of sweep steps that failed.",
	})
	orphansRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_reconcile_orphans_removed_total",
		Help: "Number of unreferenced attachment blobs deleted.",
	})
)
