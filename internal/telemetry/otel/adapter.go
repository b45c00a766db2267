package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"auth-service/internal/telemetry"
	"auth-service/internal/telemetry/domain"
)

const instrumentationName = "auth-service.session"

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationName))
}

// recordEmitter is the part of otellog.Logger the emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitterWithLogger returns an emitter writing to logger directly.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.SessionEvent) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the session event to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.SessionEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetBody(otellog.StringValue("session " + string(event.Type)))
	rec.SetSeverity(severityOf(event.Type))
	rec.AddAttributes(otellog.String("event_type", string(event.Type)))
	for _, kv := range []struct{ k, v string }{
		{"user_id", event.UserID},
		{"session_id", event.SessionID},
		{"role", event.Role},
		{"tenant_id", event.TenantID},
		{"reason", event.Reason},
		{"source", event.Source},
	} {
		if kv.v != "" {
			rec.AddAttributes(otellog.String(kv.k, kv.v))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severityOf(t domain.EventType) otellog.Severity {
	switch t {
	case domain.EventLoginFailed, domain.EventRefreshRejected:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
