package server

import (
	"net/http"
	"time"

	"webstarter/backend/internal/server/middleware"
	"webstarter/backend/internal/server/respond"
)

// isoMillis matches the millisecond UTC timestamps browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type exampleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type exampleSession struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// publicAPI is the unauthenticated sample endpoint.
func publicAPI(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":   "This is a public API endpoint - no authentication required",
		"timestamp": time.Now().UTC().Format(isoMillis),
		"data": map[string]string{
			"version": "1.0.0",
			"status":  "healthy",
		},
	})
}

// protectedAPI is the sample endpoint behind RequireAPI.
func protectedAPI(w http.ResponseWriter, r *http.Request) {
	view, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in to access this endpoint")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":   "This is a protected API endpoint - authentication required",
		"timestamp": time.Now().UTC().Format(isoMillis),
		"user": exampleUser{
			ID:    view.User.ID,
			Email: view.User.Email,
			Name:  view.User.Name,
		},
		"session": exampleSession{ExpiresAt: view.Session.ExpiresAt},
	})
}
