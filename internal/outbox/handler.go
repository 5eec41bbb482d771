// Package outbox relays committed outbox rows to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	domainkafka "github.com/NordCoder/Versionwatch/internal/domain/kafka"
	"github.com/NordCoder/Versionwatch/internal/domain/outbox"
	"github.com/NordCoder/Versionwatch/internal/obs/retry"
)

var (
	handlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "versionwatch",
		Name:      "outbox_handler_latency_seconds",
		Help:      "Latency of outbox handlers including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "versionwatch",
		Name:      "outbox_handler_errors_total",
		Help:      "Outbox handler failures after retries.",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle."+kind)
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		handlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "handle")
			handlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// NewDispatch routes each outbox kind to its publisher.
func NewDispatch(events domainkafka.VersionEvents, pol retry.Policy) outbox.GlobalHandler {
	versionDetected := instrument("version_detected", func(ctx context.Context, data []byte) error {
		var ev domainkafka.VersionDetected
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode version-detected payload: %w: %v", retry.ErrPermanent, err)
		}
		if ev.Version == "" {
			return fmt.Errorf("version-detected payload without version: %w", retry.ErrPermanent)
		}
		return events.PublishVersionDetected(ctx, ev)
	}, pol)

	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindVersionDetected:
			return versionDetected, nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
