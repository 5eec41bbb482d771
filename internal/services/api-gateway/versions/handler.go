package versions

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/version"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/httpx"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Reader interface {
	Latest(ctx context.Context) (*version.Version, error)
	List(ctx context.Context, limit, offset int) ([]*version.Version, error)
}

type Handler struct {
	versions Reader
	feed     http.Handler
	log      *zap.Logger
}

func NewHandler(versions Reader, feed http.Handler, log *zap.Logger) *Handler {
	return &Handler{versions: versions, feed: feed, log: log.With(zap.String("component", "api.versions"))}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/latest", h.latest)
	r.Get("/history", h.history)
	r.Method(http.MethodGet, "/rss", h.feed)
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	v, err := h.versions.Latest(r.Context())
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "No versions found")
		return
	case err != nil:
		h.log.Error("latest version", zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to fetch latest version")
		return
	}
	httpx.OK(w, v)
}

type historyPage struct {
	Versions   []*version.Version `json:"versions"`
	Pagination pagination         `json:"pagination"`
}

type pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ClampPage applies the history defaults: limit 1..100 (10 when absent),
// offset >= 0.
func ClampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit, offset := ClampPage(
		httpx.IntQuery(r, "limit", defaultLimit),
		httpx.IntQuery(r, "offset", 0),
	)
	list, err := h.versions.List(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("version history", zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to fetch version history")
		return
	}
	if list == nil {
		list = []*version.Version{}
	}
	httpx.OK(w, historyPage{Versions: list, Pagination: pagination{Limit: limit, Offset: offset}})
}
