// Package handler serves GET /api/dashboard.
package handler

import (
	"net/http"

	"webstarter/backend/internal/dashboard"
	"webstarter/backend/internal/server/middleware"
	"webstarter/backend/internal/server/respond"
)

// Overview returns the dashboard data for the signed-in user. It must run behind RequireAPI.
func Overview(w http.ResponseWriter, r *http.Request) {
	view, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in to access this endpoint")
		return
	}
	respond.JSON(w, http.StatusOK, dashboard.NewOverview(view.User))
}
