package obs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler runs every check under a short deadline and answers 200
// only when all of them pass.
func HealthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		rep := healthReport{Status: "ok", Checks: make(map[string]string, len(names))}
		code := http.StatusOK
		for _, n := range names {
			if err := checks[n](ctx); err != nil {
				rep.Checks[n] = err.Error()
				rep.Status = "unhealthy"
				code = http.StatusServiceUnavailable
				continue
			}
			rep.Checks[n] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(rep)
	}
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

// BootstrapMetricsServer serves /metrics and /healthz on addr in the
// background. Callers shut it down with Shutdown.
func BootstrapMetricsServer(addr string, checks map[string]HealthCheck, l *zap.Logger) *http.Server {
	ms := NewMetricsServer(addr, checks)

	go func() {
		l.Info("metrics listening", zap.String("addr", addr))
		if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server error", zap.Error(err))
		}
	}()

	return ms
}

func NewMetricsServer(addr string, checks map[string]HealthCheck) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.Handle("/healthz", HealthHandler(checks))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      3 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
