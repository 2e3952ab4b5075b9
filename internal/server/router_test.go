package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthhandler "webstarter/backend/internal/health/handler"
	"webstarter/backend/internal/identity/service"
	"webstarter/backend/internal/server/middleware"
	sessiondomain "webstarter/backend/internal/session/domain"
	settingsdomain "webstarter/backend/internal/settings/domain"
	settingsservice "webstarter/backend/internal/settings/service"
	"webstarter/backend/internal/telemetry/metrics"
	userdomain "webstarter/backend/internal/user/domain"
	"webstarter/backend/internal/web"
)

const validToken = "tok-valid"

var expiresAt = time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

type stubAuth struct{}

func (stubAuth) view() *service.SessionView {
	return &service.SessionView{
		User:    &userdomain.User{ID: "u1", Email: "ann@example.com", Name: "Ann"},
		Session: &sessiondomain.Session{ID: "s1", UserID: "u1", ExpiresAt: expiresAt},
	}
}

func (a stubAuth) SignUp(ctx context.Context, email, password, name string, meta service.ClientMeta) (*service.AuthResult, error) {
	v := a.view()
	return &service.AuthResult{User: v.User, Session: v.Session, Token: validToken}, nil
}

func (a stubAuth) SignIn(ctx context.Context, email, password string, meta service.ClientMeta) (*service.AuthResult, error) {
	return nil, service.ErrInvalidCredentials
}

func (stubAuth) SignOut(ctx context.Context, token string) error { return nil }
func (stubAuth) RevokeSessions(ctx context.Context, userID string) error { return nil }

func (a stubAuth) GetSession(ctx context.Context, token string) (*service.SessionView, error) {
	if token != validToken {
		return nil, service.ErrInvalidSession
	}
	return a.view(), nil
}

type stubSettings struct{}

func (stubSettings) Get(ctx context.Context, userID string) (*settingsservice.View, error) {
	return &settingsservice.View{User: &userdomain.User{ID: userID, Name: "Ann"}, Settings: settingsdomain.Defaults(userID)}, nil
}

func (s stubSettings) Update(ctx context.Context, userID, name string, prefs settingsservice.Preferences) (*settingsservice.View, error) {
	return s.Get(ctx, userID)
}

func newTestRouter(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()
	render, err := web.NewRenderer()
	require.NoError(t, err)
	deps := Deps{
		Auth:        stubAuth{},
		Settings:    stubSettings{},
		Renderer:    render,
		Cookie:      middleware.CookieConfig{Name: "session_token"},
		Metrics:     metrics.New(),
		CORSOrigins: []string{"http://localhost:3000"},
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicAPI(t *testing.T) {
	rec := serve(newTestRouter(t, nil), httptest.NewRequest(http.MethodGet, "/api/public", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message   string            `json:"message"`
		Timestamp string            `json:"timestamp"`
		Data      map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "This is a public API endpoint - no authentication required", body.Message)
	assert.Equal(t, map[string]string{"version": "1.0.0", "status": "healthy"}, body.Data)
	_, err := time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
}

func TestProtectedAPI_Unauthenticated(t *testing.T) {
	h := newTestRouter(t, nil)
	for _, auth := range []string{"", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := serve(h, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized","message":"You must be logged in to access this endpoint"}`, rec.Body.String())
	}
}

func TestProtectedAPI_Bearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec := serve(newTestRouter(t, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "This is a protected API endpoint - authentication required", body["message"])
	assert.Equal(t, map[string]any{"id": "u1", "email": "ann@example.com", "name": "Ann"}, body["user"])
	assert.Equal(t, map[string]any{"expiresAt": "2030-01-02T03:04:05Z"}, body["session"])
}

func TestGetSession_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/get-session", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: validToken})
	rec := serve(newTestRouter(t, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ann@example.com"`)
}

func TestSignInFailure_MappedToStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in/email",
		strings.NewReader(`{"email":"ann@example.com","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newTestRouter(t, nil), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_EMAIL_OR_PASSWORD")
}

func TestAPIDashboardAndSettings_RequireSession(t *testing.T) {
	h := newTestRouter(t, nil)
	for _, path := range []string{"/api/dashboard", "/api/settings"} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		rec = serve(h, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestPages_RedirectAndRender(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: validToken})
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back, Ann")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, func(d *Deps) {
		d.HealthDB = healthhandler.PingerFunc(func(context.Context) error { return errors.New("down") })
	})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)
	serve(h, httptest.NewRequest(http.MethodGet, "/api/public", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/api/public",status_code="200"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	h := newTestRouter(t, func(d *Deps) { d.Metrics = nil })
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS_AllowsConfiguredOriginWithCredentials(t *testing.T) {
	h := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/settings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := serve(h, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/public", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
