// Package gateway assembles the REST surface from the per-area handlers.
package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/admin"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/auth"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/httpx"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/notifications"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/versions"
)

const FeedPath = "/api/versions/rss"

type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Feed    string `json:"feed"`
}

type Handlers struct {
	Info          Info
	Auth          *auth.Handler
	Authn         func(http.Handler) http.Handler
	Versions      *versions.Handler
	Notifications *notifications.Handler
	Admin         *admin.Handler
	// Health answers /healthz; nil means always ok.
	Health         http.HandlerFunc
	AllowedOrigins []string
}

func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins(h.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", admin.TokenHeader},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) { httpx.OK(w, h.Info) })
	for _, p := range []string{"/feed", "/feed.xml", "/rss", "/rss.xml"} {
		r.Get(p, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, FeedPath, http.StatusFound)
		})
	}
	health := h.Health
	if health == nil {
		health = func(w http.ResponseWriter, _ *http.Request) { httpx.Message(w, "ok") }
	}
	r.Get("/healthz", health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", h.Auth.Routes)
		r.Route("/versions", h.Versions.Routes)
		r.Route("/notifications", func(r chi.Router) { h.Notifications.Routes(r, h.Authn) })
		r.Route("/admin", h.Admin.Routes)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Not found")
	})
	return r
}

func origins(o []string) []string {
	if len(o) == 0 {
		return []string{"*"}
	}
	return o
}
