package domain

import "time"

// AuditLog is one recorded account event. UserID is empty for events without a known user.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
