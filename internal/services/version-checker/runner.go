package checker

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/repository/redis"
)

const DefaultSchedule = "*/10 * * * *"

const lockName = "version-cycle"

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule accepts five-field cron expressions and descriptors such
// as "@hourly".
func ValidateSchedule(spec string) error {
	_, err := scheduleParser.Parse(spec)
	return err
}

type Lock interface {
	Release(ctx context.Context) error
}

// Locker keeps two replicas from running the same cycle. Acquire returns
// redis.ErrLockHeld when someone else holds it.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lock, error)
}

type RunnerConfig struct {
	Schedule     string
	RunOnStart   bool
	CycleTimeout time.Duration
	LockTTL      time.Duration
}

type Runner struct {
	log    *zap.Logger
	uc     *Usecase
	locker Locker
	cfg    RunnerConfig
}

// NewRunner accepts a nil locker; cycles then run unguarded.
func NewRunner(log *zap.Logger, uc *Usecase, locker Locker, cfg RunnerConfig) *Runner {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 5 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.CycleTimeout
	}
	return &Runner{
		log:    log.With(zap.String("component", "checker.runner")),
		uc:     uc,
		locker: locker,
		cfg:    cfg,
	}
}

// Run blocks until ctx is cancelled and waits for an in-flight cycle.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{r.log}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{r.log})),
	)
	if _, err := c.AddFunc(r.cfg.Schedule, func() { r.tick(ctx) }); err != nil {
		return err
	}

	if r.cfg.RunOnStart {
		r.tick(ctx)
	}

	c.Start()
	r.log.Info("cron started", zap.String("schedule", r.cfg.Schedule))

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (r *Runner) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, r.cfg.CycleTimeout)
	defer cancel()

	if r.locker != nil {
		lk, err := r.locker.Acquire(ctx, lockName, r.cfg.LockTTL)
		switch {
		case errors.Is(err, redis.ErrLockHeld):
			mCycles.WithLabelValues("locked").Inc()
			r.log.Debug("cycle already running elsewhere")
			return
		case err != nil:
			r.log.Warn("lock backend unavailable, running unguarded", zap.Error(err))
		default:
			defer func() {
				if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
					r.log.Warn("release lock", zap.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	res, rep := r.uc.Cycle(ctx)
	mCycleDur.Observe(time.Since(start).Seconds())

	outcome := "unchanged"
	if res.IsNewVersion {
		outcome = "new"
	} else if res.Version == "" {
		outcome = "error"
	}
	mCycles.WithLabelValues(outcome).Inc()

	fields := []zap.Field{zap.String("outcome", outcome), zap.String("version", res.Version)}
	if rep != nil {
		fields = append(fields, zap.Int("delivered", rep.Succeeded), zap.Int("failed", rep.Failed))
	}
	r.log.Info("cycle finished", fields...)
}

type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug(msg, zap.Any("cron", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error(msg, zap.Error(err), zap.Any("cron", kv))
}

// RedisLocker adapts the redis lock to Locker.
type RedisLocker struct{ L *redis.Locker }

func (a RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lock, error) {
	lk, err := a.L.Acquire(ctx, name, ttl)
	if err != nil {
		return nil, err
	}
	return lk, nil
}
