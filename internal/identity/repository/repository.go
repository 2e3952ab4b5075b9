package repository

import (
	"context"

	"webstarter/backend/internal/identity/domain"
	userdomain "webstarter/backend/internal/user/domain"
)

// Repository defines persistence for identities.
type Repository interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// CreateAccount inserts the user and its first identity atomically.
	CreateAccount(ctx context.Context, u *userdomain.User, i *domain.Identity) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}
