package main

import (
	"context"

	config "github.com/NordCoder/Versionwatch/internal/config/api-gateway"
	"github.com/NordCoder/Versionwatch/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}
