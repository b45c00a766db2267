package telemetry

import (
	"context"
	"errors"

	"auth-service/internal/telemetry/domain"
)

// EventEmitter emits session events (e.g. to Kafka or OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.SessionEvent) error
}

// Multi fans an event out to every non-nil emitter. All emitters are called even if one fails;
// the returned error joins every failure.
func Multi(emitters ...EventEmitter) EventEmitter {
	out := make(multiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type multiEmitter []EventEmitter

func (m multiEmitter) Emit(ctx context.Context, event *domain.SessionEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
