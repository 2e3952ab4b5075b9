// Package handler serves the JSON auth endpoints under /api/auth.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"webstarter/backend/internal/identity/service"
	"webstarter/backend/internal/server/middleware"
	"webstarter/backend/internal/server/respond"
)

// AuthService is the subset of the auth service used by the handlers.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string, meta service.ClientMeta) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password string, meta service.ClientMeta) (*service.AuthResult, error)
	SignOut(ctx context.Context, token string) error
	RevokeSessions(ctx context.Context, userID string) error
}

// Server implements the auth API.
type Server struct {
	auth   AuthService
	cookie middleware.CookieConfig
	logger *zap.Logger
}

// NewServer returns a new auth API server.
func NewServer(auth AuthService, cookie middleware.CookieConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{auth: auth, cookie: cookie, logger: logger}
}

// Routes mounts the endpoints on r. The session middleware must run before them.
func (s *Server) Routes(r chi.Router) {
	r.Post("/sign-up/email", s.SignUpEmail)
	r.Post("/sign-in/email", s.SignInEmail)
	r.Post("/sign-out", s.SignOut)
	r.Get("/get-session", s.GetSession)
	r.Post("/revoke-sessions", s.RevokeSessions)
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string           `json:"token"`
	User  respond.UserBody `json:"user"`
}

// SignUpEmail creates an account. A whitelist rejection is 403 FORBIDDEN with the rejection message.
func (s *Server) SignUpEmail(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON")
		return
	}
	res, err := s.auth.SignUp(r.Context(), req.Email, req.Password, req.Name, ClientMeta(r))
	if err != nil {
		respond.ServiceError(w, s.logger, err)
		return
	}
	s.cookie.SetSessionCookie(w, res.Token, res.Session.ExpiresAt)
	respond.JSON(w, http.StatusOK, authResponse{Token: res.Token, User: respond.User(res.User)})
}

func (s *Server) SignInEmail(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON")
		return
	}
	res, err := s.auth.SignIn(r.Context(), req.Email, req.Password, ClientMeta(r))
	if err != nil {
		respond.ServiceError(w, s.logger, err)
		return
	}
	s.cookie.SetSessionCookie(w, res.Token, res.Session.ExpiresAt)
	respond.JSON(w, http.StatusOK, authResponse{Token: res.Token, User: respond.User(res.User)})
}

// SignOut revokes the current session, if any, and clears the cookie.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.Token(r.Context()); ok {
		if err := s.auth.SignOut(r.Context(), token); err != nil {
			respond.ServiceError(w, s.logger, err)
			return
		}
	}
	s.cookie.ClearSessionCookie(w)
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RevokeSessions signs the current user out of every session, this one included.
func (s *Server) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.ServiceError(w, s.logger, service.ErrInvalidSession)
		return
	}
	if err := s.auth.RevokeSessions(r.Context(), userID); err != nil {
		respond.ServiceError(w, s.logger, err)
		return
	}
	s.cookie.ClearSessionCookie(w)
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetSession returns the current session and user, or JSON null when unauthenticated.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respond.JSON(w, http.StatusOK, nil)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"session": respond.Session(view.Session),
		"user":    respond.User(view.User),
	})
}

// ClientMeta extracts the session metadata recorded for r.
func ClientMeta(r *http.Request) service.ClientMeta {
	return service.ClientMeta{
		IPAddress: middleware.ClientIP(r.Context()),
		UserAgent: r.UserAgent(),
	}
}
