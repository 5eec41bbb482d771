package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Versionwatch/internal/config/version-checker"
	"github.com/NordCoder/Versionwatch/internal/obs"
	pg "github.com/NordCoder/Versionwatch/internal/repository/postgres"
	redisRepo "github.com/NordCoder/Versionwatch/internal/repository/redis"
	"github.com/NordCoder/Versionwatch/internal/services/notifier"
	checker "github.com/NordCoder/Versionwatch/internal/services/version-checker"
	"github.com/NordCoder/Versionwatch/internal/version"
)

func initDispatcher(db *pg.DB, cfg *config.Config, l *zap.Logger) *notifier.Dispatcher {
	client := notifier.NewHTTPClient(cfg.Notifier.HTTPTimeout)
	return notifier.NewDispatcher(notifier.Deps{
		Channels:    pg.NewChannelRepo(db),
		Preferences: pg.NewPreferenceRepo(db),
		Users:       pg.NewUserRepo(db),
		History:     pg.NewHistoryRepo(db),
		Slack:       notifier.NewSlackSender(client).WithLogger(l),
		Telegram:    notifier.NewTelegramSender(client, cfg.Notifier.TelegramAPI).WithLogger(l),
		Templates:   notifier.Templates{Product: cfg.Vendor.Product, DownloadPage: cfg.Notifier.DownloadPage},
		Log:         l,
	})
}

func initUsecase(db *pg.DB, cfg *config.Config, fanout checker.Fanout, l *zap.Logger) *checker.Usecase {
	return &checker.Usecase{
		Versions:  pg.NewVersionRepo(db),
		Outbox:    pg.NewOutboxRepo(db),
		Tx:        pg.NewTransactor(db, l),
		Vendor:    checker.NewVendorClient(notifier.NewHTTPClient(cfg.Vendor.FetchTimeout), cfg.Vendor.URL),
		Extractor: version.NewExtractor(cfg.Vendor.Product),
		Fanout:    fanout,
		Log:       obs.Component(l, "checker.uc"),
	}
}

// initLocker returns a nil Locker when redis is disabled or unreachable;
// cycles then run unguarded.
func initLocker(ctx context.Context, cfg *config.Config, l *zap.Logger) (checker.Locker, func()) {
	if !cfg.Redis.Enable {
		l.Warn("redis disabled, cycle lock off")
		return nil, func() {}
	}
	rdb, err := redisRepo.NewClient(ctx, redisRepo.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		l.Warn("redis unavailable, cycle lock off", zap.Error(err))
		return nil, func() {}
	}
	return checker.RedisLocker{L: redisRepo.NewLocker(rdb, "")}, func() { _ = rdb.Close() }
}
