package audit

import "auth-service/internal/telemetry/domain"

// ActionResource holds the audit action and resource recorded for a session event.
type ActionResource struct {
	Action   string
	Resource string
}

var eventActions = map[domain.EventType]ActionResource{
	domain.EventRegister:        {Action: "register", Resource: "user"},
	domain.EventLogin:           {Action: "login", Resource: "session"},
	domain.EventLoginFailed:     {Action: "login_failure", Resource: "session"},
	domain.EventRefresh:         {Action: "rotate", Resource: "session"},
	domain.EventRefreshRejected: {Action: "rotate_rejected", Resource: "session"},
	domain.EventLogout:          {Action: "logout", Resource: "session"},
}

// ForEvent returns action and resource for an event type.
// Unknown types keep their name as the action on resource "session".
func ForEvent(t domain.EventType) ActionResource {
	if ar, ok := eventActions[t]; ok {
		return ar
	}
	if t == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	return ActionResource{Action: string(t), Resource: "session"}
}
