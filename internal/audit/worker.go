package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"tradelane/pkg/requestcontext"
)

// AsyncPublisher enqueues events for background persistence so slow sinks
// (Kafka) stay off the request path. Events are enriched at emit time because
// request-scoped context values are gone by the time the worker runs.
type AsyncPublisher struct {
	inbox chan<- Event
}

func NewAsyncPublisher(inbox chan<- Event) *AsyncPublisher {
	return &AsyncPublisher{inbox: inbox}
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.inbox <- event:
		return nil
	}
}

// Worker consumes audit events from a channel and persists them. Append
// failures are logged and skipped; the audit stream must not wedge the
// registries.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
