package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"auth-service/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds Drain at shutdown, before OTel providers and the Kafka writer close.
// Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// inflight counts emits started by EmitAsync that have not returned yet.
var inflight sync.WaitGroup

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// Use from request paths for fire-and-forget telemetry; errors are logged.
//
// emitter and event may be nil; EmitAsync returns immediately without starting a goroutine.
// The goroutine detaches from ctx cancellation (keeping its values) and applies emitTimeout instead.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *domain.SessionEvent) {
	if emitter == nil || event == nil {
		return
	}
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			slog.Warn("telemetry: async emit failed", "event_type", event.Type, "error", err)
		}
	}()
}

// Drain blocks until every emit started by EmitAsync has returned, or ctx is done.
// Call it after the servers stop accepting requests.
func Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
