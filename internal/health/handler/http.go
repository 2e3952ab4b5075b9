// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"net/http"
	"time"

	"webstarter/backend/internal/server/respond"
)

// Pinger checks a backing store (e.g. *sql.DB, the Redis session cache).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Server implements /health and /health/live.
type Server struct {
	db      Pinger
	cache   Pinger
	timeout time.Duration
}

// NewServer returns a health server. Either pinger may be nil, in which case that check is skipped.
func NewServer(db, cache Pinger) *Server {
	return &Server{db: db, cache: cache, timeout: 2 * time.Second}
}

type checkResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Time   time.Time         `json:"timestamp"`
}

// Live always reports ok while the process serves requests.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, checkResult{Status: "ok", Time: time.Now().UTC()})
}

// Ready pings the database and cache; any failure is 503.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res := checkResult{Status: "ok", Checks: map[string]string{}, Time: time.Now().UTC()}
	status := http.StatusOK
	for name, p := range map[string]Pinger{"database": s.db, "cache": s.cache} {
		if p == nil {
			continue
		}
		if err := p.PingContext(ctx); err != nil {
			res.Checks[name] = "unavailable"
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	respond.JSON(w, status, res)
}
