package repository

import (
	"context"

	"webstarter/backend/internal/settings/domain"
)

// Repository defines persistence for user settings.
type Repository interface {
	// Get returns the stored settings, or domain.Defaults when the user has none.
	Get(ctx context.Context, userID string) (*domain.Settings, error)
	Upsert(ctx context.Context, s *domain.Settings) error
	// Save upserts s and renames the user when name is not empty, atomically.
	Save(ctx context.Context, s *domain.Settings, name string) error
}
