package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"webstarter/backend/internal/session/domain"
)

// SessionCache is the read-through store consulted before the database.
type SessionCache interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Set(ctx context.Context, s *domain.Session) error
	// Add writes s only when no entry exists for its ID.
	Add(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, userID string) error
}

// CachedRepository wraps a Repository with a SessionCache. Cache failures are logged
// and fall through to the wrapped repository.
type CachedRepository struct {
	next   Repository
	cache  SessionCache
	logger *zap.Logger
}

// NewCachedRepository returns a CachedRepository. A nil logger disables cache error logging.
func NewCachedRepository(next Repository, cache SessionCache, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{next: next, cache: cache, logger: logger}
}

func (r *CachedRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.Warn("session cache get failed", zap.String("session_id", id), zap.Error(err))
	} else if s != nil {
		return s, nil
	}
	s, err = r.next.GetByID(ctx, id)
	if err != nil || s == nil {
		return s, err
	}
	if err := r.cache.Add(ctx, s); err != nil {
		r.logger.Warn("session cache set failed", zap.String("session_id", id), zap.Error(err))
	}
	return s, nil
}

func (r *CachedRepository) Create(ctx context.Context, s *domain.Session) error {
	if err := r.next.Create(ctx, s); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, s); err != nil {
		r.logger.Warn("session cache set failed", zap.String("session_id", s.ID), zap.Error(err))
	}
	return nil
}

// Revoke revokes in the database, then overwrites the cached entry with the revoked row.
// Read-through fills never replace an entry, so a copy read before the revoke cannot
// bring the session back.
func (r *CachedRepository) Revoke(ctx context.Context, id string) error {
	if err := r.next.Revoke(ctx, id); err != nil {
		return err
	}
	s, err := r.next.GetByID(ctx, id)
	if err != nil || s == nil {
		r.invalidate(ctx, id)
		return nil
	}
	if err := r.cache.Set(ctx, s); err != nil {
		r.logger.Warn("session cache set failed", zap.String("session_id", id), zap.Error(err))
		r.invalidate(ctx, id)
	}
	return nil
}

// RevokeAllByUser revokes in the database, then drops the user's cached sessions.
func (r *CachedRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	if err := r.next.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	if err := r.cache.DeleteUser(ctx, userID); err != nil {
		r.logger.Warn("session cache user delete failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

func (r *CachedRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.next.DeleteExpired(ctx, cutoff)
}

func (r *CachedRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.logger.Warn("session cache delete failed", zap.String("session_id", id), zap.Error(err))
	}
}
