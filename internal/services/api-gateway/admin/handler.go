// Package admin exposes operator triggers guarded by a shared token.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/version"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/httpx"
	"github.com/NordCoder/Versionwatch/internal/services/notifier"
	checker "github.com/NordCoder/Versionwatch/internal/services/version-checker"
)

const TokenHeader = "X-Admin-Token"

// RunTimeout bounds a manual cycle or fan-out. Both run detached from the
// request context and keep going after the client hangs up.
const RunTimeout = 5 * time.Minute

type Cycler interface {
	Cycle(ctx context.Context) (checker.Result, *notifier.Report)
}

type LatestReader interface {
	Latest(ctx context.Context) (*version.Version, error)
}

type Fanout interface {
	NotifyAll(ctx context.Context, v *version.Version) notifier.Report
}

type Handler struct {
	token    string
	cycle    Cycler
	versions LatestReader
	fanout   Fanout
	log      *zap.Logger
}

func NewHandler(token string, cycle Cycler, versions LatestReader, fanout Fanout, log *zap.Logger) *Handler {
	return &Handler{
		token:    token,
		cycle:    cycle,
		versions: versions,
		fanout:   fanout,
		log:      log.With(zap.String("component", "api.admin")),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(h.guard)
	r.Post("/check-version", h.checkVersion)
	r.Post("/notify", h.notify)
}

// guard rejects every request when no token is configured.
func (h *Handler) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(TokenHeader)
		if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type checkResponse struct {
	checker.Result
	Notifications *notifier.Report `json:"notifications,omitempty"`
}

func (h *Handler) checkVersion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := detached(r)
	defer cancel()
	res, rep := h.cycle.Cycle(ctx)
	h.log.Info("manual check", zap.Bool("new", res.IsNewVersion), zap.String("version", res.Version))
	httpx.OK(w, checkResponse{Result: res, Notifications: rep})
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	v, err := h.versions.Latest(r.Context())
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "No versions found")
		return
	case err != nil:
		h.log.Error("latest version", zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to send notifications")
		return
	}
	ctx, cancel := detached(r)
	defer cancel()
	rep := h.fanout.NotifyAll(ctx, v)
	h.log.Info("manual fan-out", zap.String("version", v.Version), zap.Int("attempted", rep.Attempted))
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Data:    rep,
		Message: "Notifications sent for version " + v.Version,
	})
}

func detached(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), RunTimeout)
}
