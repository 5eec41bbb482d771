package checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mNewVersions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versionwatch_new_versions_total", Help: "Versions stored as new.",
	})
	mDetectionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versionwatch_detection_errors_total", Help: "Cycles that could not read the vendor release.",
	})
	mCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versionwatch_cycles_total", Help: "Scheduled cycles by outcome.",
	}, []string{"outcome"})
	mCycleDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "versionwatch_cycle_duration_seconds", Help: "Scheduled cycle duration.",
		Buckets: prometheus.DefBuckets,
	})
)
