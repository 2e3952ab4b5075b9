package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"webstarter/backend/internal/settings/domain"
	"webstarter/backend/internal/settings/repository"
	userdomain "webstarter/backend/internal/user/domain"
)

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*userdomain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	u2 := *u
	return &u2, nil
}

func (r *memUserRepo) rename(id, name string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false
	}
	u.Name = name
	u.UpdatedAt = at
	return true
}

func (r *memUserRepo) name(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Name
}

type memSettingsRepo struct {
	mu      sync.Mutex
	m       map[string]domain.Settings
	users   *memUserRepo
	renames int
	err     error
}

func (r *memSettingsRepo) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[userID]; ok {
		return &s, nil
	}
	return domain.Defaults(userID), nil
}

// Save applies nothing when it fails, like the rolled-back transaction it stands in for.
func (r *memSettingsRepo) Save(ctx context.Context, s *domain.Settings, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if name != "" {
		if !r.users.rename(s.UserID, name, s.UpdatedAt) {
			return repository.ErrUserNotFound
		}
		r.renames++
	}
	r.m[s.UserID] = *s
	return nil
}

func newTestService() (*Service, *memUserRepo, *memSettingsRepo) {
	users := &memUserRepo{byID: map[string]*userdomain.User{
		"u1": {ID: "u1", Email: "a@example.com", Name: "Alice", Status: userdomain.UserStatusActive},
	}}
	settings := &memSettingsRepo{m: make(map[string]domain.Settings), users: users}
	return NewService(users, settings), users, settings
}

func TestGet_Defaults(t *testing.T) {
	svc, _, _ := newTestService()
	v, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !v.Settings.EmailNotifications || v.Settings.MarketingEmails {
		t.Errorf("defaults = %+v, want notifications on, marketing off", v.Settings)
	}
	if v.User.Name != "Alice" {
		t.Errorf("name = %q", v.User.Name)
	}
}

func TestGet_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, users, settings := newTestService()
	ctx := context.Background()
	v, err := svc.Update(ctx, "u1", "  Alice Smith ", Preferences{EmailNotifications: false, MarketingEmails: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v.User.Name != "Alice Smith" || users.name("u1") != "Alice Smith" {
		t.Errorf("name not updated: %q", v.User.Name)
	}
	saved := settings.m["u1"]
	if saved.EmailNotifications || !saved.MarketingEmails || saved.UpdatedAt.IsZero() {
		t.Errorf("saved settings = %+v", saved)
	}

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Settings.EmailNotifications || !got.Settings.MarketingEmails {
		t.Errorf("Get after Update = %+v", got.Settings)
	}
}

func TestUpdate_UnchangedNameSkipsWrite(t *testing.T) {
	svc, _, settings := newTestService()
	if _, err := svc.Update(context.Background(), "u1", "Alice", Preferences{EmailNotifications: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if settings.renames != 0 {
		t.Errorf("renames = %d, want 0", settings.renames)
	}
}

func TestUpdate_InvalidName(t *testing.T) {
	svc, _, settings := newTestService()
	for _, name := range []string{"", "   ", strings.Repeat("n", MaxNameLength+1)} {
		if _, err := svc.Update(context.Background(), "u1", name, Preferences{}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Update(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
	if len(settings.m) != 0 {
		t.Error("invalid update must not save settings")
	}
}

func TestUpdate_RepoError(t *testing.T) {
	svc, _, settings := newTestService()
	settings.err = errors.New("db down")
	if _, err := svc.Update(context.Background(), "u1", "Alice", Preferences{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdate_FailureKeepsName(t *testing.T) {
	svc, users, settings := newTestService()
	settings.err = errors.New("db down")
	if _, err := svc.Update(context.Background(), "u1", "Mallory", Preferences{MarketingEmails: true}); err == nil {
		t.Fatal("expected error")
	}
	if got := users.name("u1"); got != "Alice" {
		t.Errorf("name = %q after failed save, want Alice", got)
	}
	if len(settings.m) != 0 {
		t.Error("failed save must not store settings")
	}
}

func TestUpdate_UserDeletedConcurrently(t *testing.T) {
	svc, users, settings := newTestService()
	settings.users = &memUserRepo{byID: map[string]*userdomain.User{}}
	_, err := svc.Update(context.Background(), "u1", "Someone Else", Preferences{})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
	if got := users.name("u1"); got != "Alice" {
		t.Errorf("name = %q, want Alice", got)
	}
}
