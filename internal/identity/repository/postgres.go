package repository

import (
	"context"
	"database/sql"
	"errors"

	"webstarter/backend/internal/db"
	"webstarter/backend/internal/identity/domain"
	userdomain "webstarter/backend/internal/user/domain"
	userrepo "webstarter/backend/internal/user/repository"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an identity repository that uses conn for persistence.
// conn may be a pool or a transaction.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// CreateAccount inserts a new user and its first identity in one transaction, so a failed
// identity insert leaves no user behind. A duplicate email is userrepo.ErrEmailTaken.
func (r *PostgresRepository) CreateAccount(ctx context.Context, u *userdomain.User, i *domain.Identity) error {
	return db.WithTx(ctx, r.db, func(tx db.DBTX) error {
		if err := userrepo.NewPostgresRepository(tx).Create(ctx, u); err != nil {
			return err
		}
		return NewPostgresRepository(tx).Create(ctx, i)
	})
}

// GetByUserAndProvider returns the identity for the given user and provider, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	var (
		i      domain.Identity
		prov   string
		hashed sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_id, password_hash, created_at
		   FROM identities WHERE user_id = $1 AND provider = $2
		  ORDER BY created_at LIMIT 1`,
		userID, string(provider),
	).Scan(&i.ID, &i.UserID, &prov, &i.ProviderID, &hashed, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Provider = domain.IdentityProvider(prov)
	i.PasswordHash = hashed.String
	return &i, nil
}

// Create persists the identity to the database. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	ph := sql.NullString{String: i.PasswordHash, Valid: i.PasswordHash != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.UserID, string(i.Provider), i.ProviderID, ph, i.CreatedAt,
	)
	return err
}

// UpdatePasswordHash updates the password hash for the identity with the given id.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	ph := sql.NullString{String: passwordHash, Valid: passwordHash != ""}
	_, err := r.db.ExecContext(ctx, `UPDATE identities SET password_hash = $2 WHERE id = $1`, id, ph)
	return err
}
