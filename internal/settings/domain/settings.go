package domain

import "time"

// Settings holds a user's notification preferences.
type Settings struct {
	UserID             string
	EmailNotifications bool
	MarketingEmails    bool
	UpdatedAt          time.Time
}

// Defaults returns the preferences of a user who never saved the settings form.
func Defaults(userID string) *Settings {
	return &Settings{UserID: userID, EmailNotifications: true, MarketingEmails: false}
}
