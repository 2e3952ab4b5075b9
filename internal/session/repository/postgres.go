package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"webstarter/backend/internal/session/domain"
)

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var (
		s         domain.Session
		revokedAt sql.NullTime
		ip, ua    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, ip_address, user_agent, created_at, updated_at
		   FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &revokedAt, &ip, &ua, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	s.IPAddress = ip.String
	s.UserAgent = ua.String
	return &s, nil
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, expires_at, revoked_at, ip_address, user_agent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.TokenHash, s.ExpiresAt, timeToNullTime(s.RevokedAt),
		stringToNull(s.IPAddress), stringToNull(s.UserAgent), s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// Revoke marks the session revoked. Revoking an already revoked or missing session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2, updated_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, now)
	return err
}

// RevokeAllByUser revokes every active session of the user.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2, updated_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`, userID, now)
	return err
}

// DeleteExpired removes sessions whose expires_at is before cutoff.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringToNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
