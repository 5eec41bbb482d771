package main

import (
	"context"
	"net"
	"time"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	config "github.com/NordCoder/Versionwatch/internal/config/api-gateway"
	"github.com/NordCoder/Versionwatch/internal/obs"
	pg "github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

const healthService = "versionwatch.ApiGateway"

// buildGRPCServer exposes the standard gRPC health service so that
// orchestrators can probe the gateway with grpc_health_probe.
func buildGRPCServer(cfg *config.Config) (*grpc.Server, *health.Server, net.Listener, error) {
	metrics := grpcprometheus.NewServerMetrics()
	metrics.EnableHandlingTimeHistogram()

	s := grpc.NewServer(obs.GRPCServerOpts(metrics)...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	metrics.InitializeMetrics(s)

	ln, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, hs, ln, nil
}

// watchHealth mirrors the database ping into the health service until ctx
// is done.
func watchHealth(ctx context.Context, hs *health.Server, db *pg.DB, logger *zap.Logger) {
	set := func() {
		pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if err := db.Ping(pctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Warn("health: db ping failed", zap.Error(err))
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(healthService, status)
	}
	set()
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			set()
		}
	}
}

func serveGRPC(s *grpc.Server, ln net.Listener, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("grpc listening", zap.String("addr", cfg.Server.GRPCAddr))
	return s.Serve(ln)
}

func gracefulStopGRPC(s *grpc.Server) { s.GracefulStop() }
