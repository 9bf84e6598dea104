package audit

import (
	"context"
	"log/slog"
)

// Sink receives audit events for delivery outside the service (e.g. the
// Kafka stream consumed by moderation tooling).
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from the outbox channel and forwards them to
// a sink. Delivery is best-effort: the store copy already exists, so sink
// failures are logged and the worker keeps draining.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit sink publish failed",
					"report_id", event.ReportID,
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
