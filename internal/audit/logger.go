// Package audit persists session lifecycle events as audit log rows.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/audit/domain"
	auditrepo "auth-service/internal/audit/repository"
	evdomain "auth-service/internal/telemetry/domain"
)

// SentinelTenantID is recorded for events whose user has no tenant (customers, admins, failed logins).
const SentinelTenantID = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// Logger writes session events to the audit repository. It implements telemetry.EventEmitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	now         func() time.Time
}

// NewLogger returns a Logger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, now: time.Now}
}

type metadata struct {
	SessionID string `json:"session_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Emit writes one audit log entry for event. A nil repo or event is a no-op.
func (l *Logger) Emit(ctx context.Context, event *evdomain.SessionEvent) error {
	if l == nil || l.repo == nil || event == nil {
		return nil
	}
	ip := ""
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if ip == "" {
		ip = "unknown"
	}
	tenantID := event.TenantID
	if tenantID == "" {
		tenantID = SentinelTenantID
	}
	var meta string
	md := metadata{SessionID: event.SessionID, Role: event.Role, Reason: event.Reason}
	if md != (metadata{}) {
		raw, err := json.Marshal(md)
		if err != nil {
			return fmt.Errorf("audit: encode metadata: %w", err)
		}
		meta = string(raw)
	}
	createdAt := event.OccurredAt
	if createdAt.IsZero() {
		createdAt = l.now().UTC()
	}
	ar := ForEvent(event.Type)
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    event.UserID,
		Action:    ar.Action,
		Resource:  ar.Resource,
		IP:        ip,
		Metadata:  meta,
		CreatedAt: createdAt,
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "audit: failed to log event", "action", ar.Action, "resource", ar.Resource, "error", err)
		return err
	}
	return nil
}
