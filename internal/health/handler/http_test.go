package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) checkResult {
	t.Helper()
	var res checkResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&mockPinger{pingErr: errors.New("down")}, nil).Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec).Status)
}

func TestReady_NilPingers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(nil, nil).Ready(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec).Checks)
}

func TestReady_AllHealthy(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&mockPinger{}, PingerFunc(func(context.Context) error { return nil })).
		Ready(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok"}, res.Checks)
}

func TestReady_DatabaseDown(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&mockPinger{pingErr: errors.New("connection refused")}, nil).
		Ready(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "degraded", res.Status)
	assert.Equal(t, "unavailable", res.Checks["database"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
