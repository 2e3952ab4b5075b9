package whitelist

import (
	"context"
	"errors"
)

// ErrNotWhitelisted is matched by errors.Is on every rejection returned by Gate.
var ErrNotWhitelisted = errors.New("email not whitelisted")

// RejectionError is returned by Gate.BeforeCreateUser when the email is not whitelisted.
// Its message is RejectionMessage and is safe to show to the user.
type RejectionError struct {
	Email string
}

func (e *RejectionError) Error() string { return rejectionMessage }

func (e *RejectionError) Unwrap() error { return ErrNotWhitelisted }

// Gate is the signup pre-create hook backed by a Config.
type Gate struct {
	cfg Config
}

// NewGate returns a Gate for cfg. The entries slice is copied.
func NewGate(cfg Config) *Gate {
	return &Gate{cfg: cloneConfig(cfg)}
}

// BeforeCreateUser returns a *RejectionError when email may not sign up, nil otherwise.
func (g *Gate) BeforeCreateUser(ctx context.Context, email string) error {
	if IsAllowed(g.cfg, email) {
		return nil
	}
	return &RejectionError{Email: email}
}

// Config returns a copy of the configuration the gate enforces.
func (g *Gate) Config() Config {
	return cloneConfig(g.cfg)
}

func cloneConfig(cfg Config) Config {
	entries := make([]string, len(cfg.Entries))
	copy(entries, cfg.Entries)
	return Config{Enabled: cfg.Enabled, Entries: entries}
}
