package domain

import "time"

// EventType names a session lifecycle transition.
type EventType string

const (
	EventRegister        EventType = "register"
	EventLogin           EventType = "login"
	EventLoginFailed     EventType = "login_failed"
	EventRefresh         EventType = "refresh"
	EventRefreshRejected EventType = "refresh_rejected"
	EventLogout          EventType = "logout"
)

// SessionEvent is a best-effort record of a session transition. It never carries
// credentials or password material.
type SessionEvent struct {
	Type       EventType `json:"event_type"`
	UserID     string    `json:"user_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSessionEvent returns an event of type t stamped with the current UTC time.
func NewSessionEvent(t EventType, userID, sessionID string) *SessionEvent {
	return &SessionEvent{
		Type:       t,
		UserID:     userID,
		SessionID:  sessionID,
		Source:     "auth-service",
		OccurredAt: time.Now().UTC(),
	}
}
