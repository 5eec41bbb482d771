package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versionwatch_deliveries_total",
		Help: "Delivery attempts by channel and outcome.",
	}, []string{"channel", "status"})

	deliveryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "versionwatch_delivery_duration_seconds",
		Help:    "Latency of a single sender call.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"channel"})

	historyWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versionwatch_history_write_errors_total",
		Help: "History rows that could not be stored.",
	})

	recipientsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versionwatch_recipients_cancelled_total",
		Help: "Active subscribers dropped because a fan-out was cancelled.",
	})

	fanoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "versionwatch_fanout_duration_seconds",
		Help:    "Duration of a whole NotifyAll run.",
		Buckets: prometheus.DefBuckets,
	})
)
