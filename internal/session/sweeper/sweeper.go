// Package sweeper periodically deletes expired sessions.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// sweepTimeout bounds a single DELETE so a slow database cannot stall shutdown.
const sweepTimeout = 30 * time.Second

// Deleter removes sessions that expired before cutoff.
type Deleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder counts deleted sessions.
type Recorder interface {
	RecordExpiredSessionsDeleted(n int64)
}

// Sweeper deletes sessions whose expiry is older than the grace period, once per interval.
type Sweeper struct {
	repo     Deleter
	recorder Recorder
	logger   *zap.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

// New returns a Sweeper. recorder and logger may be nil.
func New(repo Deleter, interval, grace time.Duration, recorder Recorder, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{repo: repo, recorder: recorder, logger: logger, interval: interval, grace: grace, now: time.Now}
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("session sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce deletes sessions that expired more than grace ago and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.repo.DeleteExpired(ctx, s.now().UTC().Add(-s.grace))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("deleted expired sessions", zap.Int64("count", n))
		if s.recorder != nil {
			s.recorder.RecordExpiredSessionsDeleted(n)
		}
	}
	return n, nil
}
