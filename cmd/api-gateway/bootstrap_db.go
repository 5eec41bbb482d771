package main

import (
	"context"

	config "github.com/NordCoder/Versionwatch/internal/config/api-gateway"
	pg "github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.New(ctx, cfg.DB)
}
