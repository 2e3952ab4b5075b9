// Package service implements the account settings form: profile name plus notification preferences.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"webstarter/backend/internal/settings/domain"
	"webstarter/backend/internal/settings/repository"
	userdomain "webstarter/backend/internal/user/domain"
)

// MaxNameLength bounds the display name.
const MaxNameLength = 100

var (
	// ErrUserNotFound is returned when the settings owner does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidName is returned for an empty or overlong display name.
	ErrInvalidName = fmt.Errorf("name is required and must be at most %d characters", MaxNameLength)
)

// Preferences are the editable notification toggles.
type Preferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	MarketingEmails    bool `json:"marketingEmails"`
}

// View is what the settings page shows.
type View struct {
	User     *userdomain.User
	Settings *domain.Settings
}

// UserRepo is the minimal user repository needed by the settings service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// SettingsRepo is the minimal settings repository needed by the settings service.
type SettingsRepo interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
	// Save upserts s and renames the user when name is not empty, atomically.
	Save(ctx context.Context, s *domain.Settings, name string) error
}

type Service struct {
	users    UserRepo
	settings SettingsRepo
	now      func() time.Time
}

func NewService(users UserRepo, settings SettingsRepo) *Service {
	return &Service{users: users, settings: settings, now: time.Now}
}

// Get returns the user with their settings, defaults applied.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	st, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &View{User: user, Settings: st}, nil
}

// Update saves the display name and preferences together and returns the new view.
// On error neither is changed.
func (s *Service) Update(ctx context.Context, userID, name string, prefs Preferences) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidName
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	now := s.now().UTC()
	rename := ""
	if user.Name != name {
		rename = name
	}
	st := &domain.Settings{
		UserID:             userID,
		EmailNotifications: prefs.EmailNotifications,
		MarketingEmails:    prefs.MarketingEmails,
		UpdatedAt:          now,
	}
	if err := s.settings.Save(ctx, st, rename); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("save settings: %w", err)
	}
	if rename != "" {
		user.Name = rename
		user.UpdatedAt = now
	}
	return &View{User: user, Settings: st}, nil
}
