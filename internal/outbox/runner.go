package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/outbox"
	"github.com/NordCoder/Versionwatch/internal/obs"
)

var (
	mPicked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "versionwatch", Name: "outbox_picked_total", Help: "Messages claimed for processing.",
	})
	mOk = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "versionwatch", Name: "outbox_processed_ok_total", Help: "Messages relayed successfully.",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "versionwatch", Name: "outbox_processed_err_total", Help: "Pick, handler and mark errors.",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "versionwatch", Name: "outbox_tick_duration_seconds", Help: "Tick duration.",
		Buckets: prometheus.DefBuckets,
	})
	mBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "versionwatch", Name: "outbox_last_batch_size", Help: "Size of the last claimed batch.",
	})
)

type Config struct {
	Workers       int
	BatchSize     int
	Wait          time.Duration
	InProgressTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Wait <= 0 {
		c.Wait = time.Second
	}
	if c.InProgressTTL <= 0 {
		c.InProgressTTL = 30 * time.Second
	}
	return c
}

// Runner claims batches of outbox rows and hands each to the handler for
// its kind. Rows whose handler fails stay IN_PROGRESS and are claimed
// again once InProgressTTL has passed.
type Runner struct {
	log      *zap.Logger
	repo     outbox.Repository
	dispatch outbox.GlobalHandler
	cfg      Config
}

func NewOutboxRunner(log *zap.Logger, repo outbox.Repository, dispatch outbox.GlobalHandler, cfg Config) *Runner {
	return &Runner{
		log:      obs.Component(log, "outbox.runner"),
		repo:     repo,
		dispatch: dispatch,
		cfg:      cfg.withDefaults(),
	}
}

// Run starts the workers and blocks until ctx is done and all of them
// have returned.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.worker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (r *Runner) worker(ctx context.Context, id int) {
	log := r.log.With(zap.Int("worker", id))
	log.Info("outbox worker started", zap.Duration("wait", r.cfg.Wait))

	ticker := time.NewTicker(r.cfg.Wait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stop")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick processes one batch and returns how many messages were relayed.
func (r *Runner) Tick(ctx context.Context) int {
	t0 := time.Now()
	defer func() { mTickDur.Observe(time.Since(t0).Seconds()) }()

	tr := otel.Tracer("outbox.runner")
	ctx, span := tr.Start(ctx, "outbox.tick")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch.limit", r.cfg.BatchSize),
		attribute.String("in_progress_ttl", r.cfg.InProgressTTL.String()),
	)

	messages, err := r.repo.PickBatch(ctx, r.cfg.BatchSize, r.cfg.InProgressTTL)
	if err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Error("outbox pick error", zap.Error(err))
		return 0
	}
	mPicked.Add(float64(len(messages)))
	mBatchSize.Set(float64(len(messages)))
	if len(messages) == 0 {
		return 0
	}

	okKeys := make([]string, 0, len(messages))
	for _, m := range messages {
		if r.relay(ctx, m) {
			okKeys = append(okKeys, m.IdempotencyKey)
		}
	}
	if len(okKeys) == 0 {
		return 0
	}
	if err := r.repo.MarkSuccess(ctx, okKeys); err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Error("mark success error", zap.Error(err))
		return 0
	}
	return len(okKeys)
}

// relay continues the trace stored with the row so the publish is linked
// to the detection that enqueued it.
func (r *Runner) relay(ctx context.Context, m outbox.Message) bool {
	parent := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier{
		"traceparent": m.Traceparent,
		"tracestate":  m.Tracestate,
		"baggage":     m.Baggage,
	})
	msgCtx, span := otel.Tracer("outbox.runner").Start(parent, "outbox.dispatch",
		trace.WithAttributes(
			attribute.String("outbox.key", m.IdempotencyKey),
			attribute.Int("outbox.kind", int(m.Kind)),
		),
	)
	defer span.End()
	log := obs.WithTrace(msgCtx, r.log).With(zap.String("key", m.IdempotencyKey), zap.Int("kind", int(m.Kind)))

	handler, err := r.dispatch(m.Kind)
	if err != nil {
		span.RecordError(err)
		mErr.Inc()
		log.Error("no handler for kind", zap.Error(err))
		return false
	}
	if err := handler(msgCtx, m.Data); err != nil {
		span.RecordError(err)
		mErr.Inc()
		log.Error("handler error", zap.Error(err))
		return false
	}
	mOk.Inc()
	return true
}
