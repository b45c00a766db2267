package domain

import "time"

// AuditLog is one persisted session lifecycle event.
type AuditLog struct {
	ID        string
	TenantID  string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
