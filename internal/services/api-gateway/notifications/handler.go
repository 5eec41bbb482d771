// Package notifications serves the channel catalogue and the caller's
// subscription preferences, delivery history and test sends.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
	"github.com/NordCoder/Versionwatch/internal/domain/notification"
	"github.com/NordCoder/Versionwatch/internal/domain/preference"
	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/auth"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/httpx"
)

const (
	notOwned     = "Preference not found or not owned by user"
	historyLimit = 50
)

type Tester interface {
	SendTest(ctx context.Context, ch *channel.Channel, u *user.User, raw []byte) error
}

type Deps struct {
	Channels    channel.Repo
	Preferences preference.Repo
	History     notification.Repo
	Tester      Tester
	Log         *zap.Logger
}

type Handler struct {
	d   Deps
	log *zap.Logger
}

func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{d: d, log: log.With(zap.String("component", "api.notifications"))}
}

// Routes mounts the public catalogue directly and everything else behind
// authn.
func (h *Handler) Routes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Get("/channels", h.channels)
	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Get("/preferences", h.listPreferences)
		r.Post("/preferences", h.createPreference)
		r.Put("/preferences/{id}", h.updatePreference)
		r.Delete("/preferences/{id}", h.deletePreference)
		r.Get("/history", h.history)
		r.Post("/test/{id}", h.test)
	})
}

func (h *Handler) channels(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.Channels.List(r.Context())
	if err != nil {
		h.log.Error("list channels", zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to fetch notification channels")
		return
	}
	if list == nil {
		list = []*channel.Channel{}
	}
	httpx.OK(w, list)
}

func (h *Handler) listPreferences(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.d.Preferences.ListForUser(r.Context(), u.ID)
	if err != nil {
		h.log.Error("list preferences", zap.String("user_id", u.ID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to fetch notification preferences")
		return
	}
	if list == nil {
		list = []*preference.Preference{}
	}
	httpx.OK(w, list)
}

type createRequest struct {
	ChannelID     int64           `json:"channelId"`
	ChannelConfig json.RawMessage `json:"channelConfig"`
}

func (h *Handler) createPreference(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil || req.ChannelID == 0 || len(req.ChannelConfig) == 0 {
		httpx.Fail(w, http.StatusBadRequest, "Channel ID and configuration are required")
		return
	}
	ch, err := h.d.Channels.GetByID(r.Context(), req.ChannelID)
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "Notification channel not found")
		return
	case err != nil:
		h.log.Error("get channel", zap.Int64("channel_id", req.ChannelID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to create notification preference")
		return
	}
	if status, msg, ok := validate(ch, req.ChannelConfig); !ok {
		httpx.Fail(w, status, msg)
		return
	}

	p, err := h.d.Preferences.Create(r.Context(), u.ID, ch.ID, req.ChannelConfig)
	switch {
	case errors.Is(err, postgres.ErrConflict):
		httpx.Fail(w, http.StatusConflict, "Preference for this channel already exists")
		return
	case err != nil:
		h.log.Error("create preference", zap.String("user_id", u.ID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to create notification preference")
		return
	}
	httpx.Created(w, p, "Notification preference created")
}

type updateRequest struct {
	ChannelConfig *json.RawMessage `json:"channelConfig"`
	IsActive      *bool            `json:"isActive"`
}

func (h *Handler) updatePreference(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	p, ok := h.owned(w, r, u)
	if !ok {
		return
	}
	var req updateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChannelConfig != nil {
		ch, err := h.d.Channels.GetByID(r.Context(), p.ChannelID)
		if err != nil {
			h.log.Error("get channel", zap.Int64("channel_id", p.ChannelID), zap.Error(err))
			httpx.Fail(w, http.StatusInternalServerError, "Failed to update notification preference")
			return
		}
		if status, msg, ok := validate(ch, *req.ChannelConfig); !ok {
			httpx.Fail(w, status, msg)
			return
		}
	}

	updated, err := h.d.Preferences.Update(r.Context(), p.ID, preference.Update{
		ChannelConfig: req.ChannelConfig,
		IsActive:      req.IsActive,
	})
	if err != nil {
		h.log.Error("update preference", zap.Int64("preference_id", p.ID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to update notification preference")
		return
	}
	if !updated {
		httpx.Fail(w, http.StatusNotFound, notOwned)
		return
	}
	httpx.Message(w, "Notification preference updated")
}

func (h *Handler) deletePreference(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	p, ok := h.owned(w, r, u)
	if !ok {
		return
	}
	deleted, err := h.d.Preferences.Delete(r.Context(), p.ID)
	if err != nil {
		h.log.Error("delete preference", zap.Int64("preference_id", p.ID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to delete notification preference")
		return
	}
	if !deleted {
		httpx.Fail(w, http.StatusNotFound, notOwned)
		return
	}
	httpx.Message(w, "Notification preference deleted")
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	limit := httpx.IntQuery(r, "limit", historyLimit)
	if limit < 1 || limit > historyLimit {
		limit = historyLimit
	}
	list, err := h.d.History.ListByUser(r.Context(), u.ID, limit)
	if err != nil {
		h.log.Error("list history", zap.String("user_id", u.ID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to fetch notification history")
		return
	}
	if list == nil {
		list = []*notification.History{}
	}
	httpx.OK(w, list)
}

func (h *Handler) test(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	p, ok := h.owned(w, r, u)
	if !ok {
		return
	}
	ch, err := h.d.Channels.GetByID(r.Context(), p.ChannelID)
	if err != nil {
		h.log.Error("get channel", zap.Int64("channel_id", p.ChannelID), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to send test notification")
		return
	}
	if err := h.d.Tester.SendTest(r.Context(), ch, u, p.ChannelConfig); err != nil {
		h.log.Warn("test notification failed",
			zap.Int64("preference_id", p.ID), zap.String("channel", ch.Name), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, channel.ErrInvalidConfig) || errors.Is(err, channel.ErrUnknownChannel) {
			status = http.StatusBadRequest
		}
		httpx.Fail(w, status, err.Error())
		return
	}
	httpx.Message(w, "Test notification sent successfully")
}

// owned loads the {id} preference and answers 404 unless it belongs to u.
// A foreign id and a missing id are indistinguishable to the caller.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request, u *user.User) (*preference.Preference, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid preference id")
		return nil, false
	}
	p, err := h.d.Preferences.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, notOwned)
		return nil, false
	case err != nil:
		h.log.Error("get preference", zap.Int64("preference_id", id), zap.Error(err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to load notification preference")
		return nil, false
	}
	if p.UserID != u.ID {
		httpx.Fail(w, http.StatusNotFound, notOwned)
		return nil, false
	}
	return p, true
}

func validate(ch *channel.Channel, raw []byte) (int, string, bool) {
	kind, err := ch.Kind()
	if err != nil {
		return http.StatusBadRequest, "Unsupported notification channel", false
	}
	if _, err := channel.DecodeConfig(kind, raw); err != nil {
		return http.StatusBadRequest, err.Error(), false
	}
	return 0, "", true
}

func caller(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := auth.UserFromCtx(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
	}
	return u, ok
}
