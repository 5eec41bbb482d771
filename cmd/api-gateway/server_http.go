package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	config "github.com/NordCoder/Versionwatch/internal/config/api-gateway"
	"github.com/NordCoder/Versionwatch/internal/obs"
	pg "github.com/NordCoder/Versionwatch/internal/repository/postgres"
	gateway "github.com/NordCoder/Versionwatch/internal/services/api-gateway"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/admin"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/auth"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/feed"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/notifications"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/versions"
	"github.com/NordCoder/Versionwatch/internal/services/notifier"
	checker "github.com/NordCoder/Versionwatch/internal/services/version-checker"
	"github.com/NordCoder/Versionwatch/internal/version"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB) *http.Server {
	users := pg.NewUserRepo(db)
	versionRepo := pg.NewVersionRepo(db)
	channels := pg.NewChannelRepo(db)
	prefs := pg.NewPreferenceRepo(db)
	history := pg.NewHistoryRepo(db)

	client := notifier.NewHTTPClient(cfg.Notifier.HTTPTimeout)
	dispatcher := notifier.NewDispatcher(notifier.Deps{
		Channels:    channels,
		Preferences: prefs,
		Users:       users,
		History:     history,
		Slack:       notifier.NewSlackSender(client).WithLogger(logger),
		Telegram:    notifier.NewTelegramSender(client, cfg.Notifier.TelegramAPI).WithLogger(logger),
		Templates:   notifier.Templates{Product: cfg.Vendor.Product, DownloadPage: cfg.Notifier.DownloadPage},
		Log:         logger,
	})
	checkUC := &checker.Usecase{
		Versions:  versionRepo,
		Outbox:    pg.NewOutboxRepo(db),
		Tx:        pg.NewTransactor(db, logger),
		Vendor:    checker.NewVendorClient(notifier.NewHTTPClient(cfg.Vendor.FetchTimeout), cfg.Vendor.URL),
		Extractor: version.NewExtractor(cfg.Vendor.Product),
		Fanout:    dispatcher,
		Log:       obs.Component(logger, "checker.uc"),
	}

	authUC := auth.NewUseCase(users, auth.Config{
		Secret:    []byte(cfg.Auth.JWTSecret),
		AccessTTL: cfg.Auth.AccessTTL,
		Issuer:    cfg.Auth.Issuer,
	})
	feedHandler := feed.NewHandler(versionRepo, feed.Config{
		SiteURL:     cfg.Feed.SiteURL,
		Title:       cfg.Feed.Title,
		Description: cfg.Feed.Description,
		Product:     cfg.Vendor.Product,
		Limit:       cfg.Feed.Limit,
	}, logger)
	if cfg.Auth.AdminToken == "" {
		logger.Warn("auth.admin_token is empty, admin endpoints are disabled")
	}

	var router chi.Router = gateway.NewRouter(gateway.Handlers{
		Info:     gateway.Info{Name: "Versionwatch API", Version: cfg.App.Version, Feed: gateway.FeedPath},
		Auth:     auth.NewHandler(authUC, logger),
		Authn:    auth.Middleware(authUC.ParseAccess, users),
		Versions: versions.NewHandler(versionRepo, feedHandler, logger),
		Notifications: notifications.NewHandler(notifications.Deps{
			Channels:    channels,
			Preferences: prefs,
			History:     history,
			Tester:      dispatcher,
			Log:         logger,
		}),
		Admin:          admin.NewHandler(cfg.Auth.AdminToken, checkUC, versionRepo, dispatcher, logger),
		Health:         obs.HealthHandler(map[string]obs.HealthCheck{"postgres": db.Ping}),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	router.Handle("/metrics", obs.MetricsHandler())

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(router, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
