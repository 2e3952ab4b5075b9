package respond

import (
	"time"

	sessiondomain "webstarter/backend/internal/session/domain"
	userdomain "webstarter/backend/internal/user/domain"
)

// UserBody is the public JSON view of a user.
type UserBody struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	Image         *string   `json:"image"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SessionBody is the public JSON view of a session. The token hash is never exposed.
type SessionBody struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func User(u *userdomain.User) UserBody {
	b := UserBody{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.Image != "" {
		img := u.Image
		b.Image = &img
	}
	return b
}

func Session(s *sessiondomain.Session) SessionBody {
	return SessionBody{
		ID:        s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
	}
}
