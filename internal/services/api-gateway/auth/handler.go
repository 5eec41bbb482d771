package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/httpx"
)

type Handler struct {
	uc  *Usecase
	log *zap.Logger
}

func NewHandler(uc *Usecase, log *zap.Logger) *Handler {
	return &Handler{uc: uc, log: log.With(zap.String("component", "api.auth"))}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

type registerRequest struct {
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type authResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, token, err := h.uc.Register(r.Context(), req.Email, req.Name)
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrEmailExists):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error("register", zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	h.log.Info("user registered", zap.String("user_id", u.ID))
	httpx.Created(w, authResponse{User: u, Token: token}, "")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil || req.Email == "" {
		httpx.Fail(w, http.StatusBadRequest, "Email is required")
		return
	}
	u, token, err := h.uc.Login(r.Context(), req.Email)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		h.log.Error("login", zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to login")
		return
	}
	httpx.OK(w, authResponse{User: u, Token: token})
}
