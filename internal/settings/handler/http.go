// Package handler serves GET and PUT /api/settings for the signed-in user.
package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"webstarter/backend/internal/server/middleware"
	"webstarter/backend/internal/server/respond"
	"webstarter/backend/internal/settings/service"
)

// SettingsService is the subset of the settings service used by the handlers.
type SettingsService interface {
	Get(ctx context.Context, userID string) (*service.View, error)
	Update(ctx context.Context, userID, name string, prefs service.Preferences) (*service.View, error)
}

type Server struct {
	svc    SettingsService
	logger *zap.Logger
}

func NewServer(svc SettingsService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, logger: logger}
}

type updateRequest struct {
	Name string `json:"name"`
	service.Preferences
}

type settingsBody struct {
	service.Preferences
	UpdatedAt *time.Time `json:"updatedAt"`
}

type response struct {
	User     respond.UserBody `json:"user"`
	Settings settingsBody     `json:"settings"`
}

func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	view, err := s.svc.Get(r.Context(), userID)
	if err != nil {
		respond.ServiceError(w, s.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(view))
}

func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	view, err := s.svc.Update(r.Context(), userID, req.Name, req.Preferences)
	if err != nil {
		respond.ServiceError(w, s.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(view))
}

func toResponse(v *service.View) response {
	body := settingsBody{Preferences: service.Preferences{
		EmailNotifications: v.Settings.EmailNotifications,
		MarketingEmails:    v.Settings.MarketingEmails,
	}}
	if !v.Settings.UpdatedAt.IsZero() {
		t := v.Settings.UpdatedAt
		body.UpdatedAt = &t
	}
	return response{User: respond.User(v.User), Settings: body}
}
