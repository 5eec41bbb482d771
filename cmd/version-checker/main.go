package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Versionwatch/internal/config/version-checker"
	"github.com/NordCoder/Versionwatch/internal/obs"
	"github.com/NordCoder/Versionwatch/internal/obs/retry"
	"github.com/NordCoder/Versionwatch/internal/outbox"
	kafkaRepo "github.com/NordCoder/Versionwatch/internal/repository/kafka"
	pg "github.com/NordCoder/Versionwatch/internal/repository/postgres"
	checker "github.com/NordCoder/Versionwatch/internal/services/version-checker"
)

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/version-checker.yaml"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal(err)
	}
	if err := checker.ValidateSchedule(cfg.Checker.Cron); err != nil {
		log.Fatalf("checker.cron %q: %v", cfg.Checker.Cron, err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)
	l.Info("starting version-checker",
		zap.String("schedule", cfg.Checker.Cron),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("metrics_addr", cfg.Checker.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	producer := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
	defer func() { _ = producer.Close() }()
	events := kafkaRepo.NewVersionEventsKafka(producer)

	// lock
	locker, closeLocker := initLocker(ctx, cfg, l)
	defer closeLocker()

	checks := map[string]obs.HealthCheck{"postgres": db.Ping}
	ms := obs.BootstrapMetricsServer(cfg.Checker.MetricsAddr, checks, l)

	// wiring
	dispatcher := initDispatcher(db, cfg, l)
	uc := initUsecase(db, cfg, dispatcher, l)
	runner := checker.NewRunner(l, uc, locker, checker.RunnerConfig{
		Schedule:     cfg.Checker.Cron,
		RunOnStart:   cfg.Checker.RunOnStart,
		CycleTimeout: cfg.Checker.CycleTimeout,
		LockTTL:      cfg.Checker.LockTTL,
	})
	relay := outbox.NewOutboxRunner(l, pg.NewOutboxRepo(db),
		outbox.NewDispatch(events, retry.RelayPolicy(obs.Component(l, "outbox.relay"))),
		outbox.Config{
			Workers:       cfg.Outbox.Workers,
			BatchSize:     cfg.Outbox.BatchSize,
			Wait:          cfg.Outbox.Wait,
			InProgressTTL: cfg.Outbox.InProgressTTL,
		},
	)

	// run
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	select {
	case <-ctx.Done():
		// an in-flight cycle still uses db and producer
		err = <-errCh
	case err = <-errCh:
		stop()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error("runner error", zap.Error(err))
	}
	wg.Wait()

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
