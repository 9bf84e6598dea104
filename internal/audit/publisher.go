// Package audit records the review-state lifecycle of reports. The trail is
// append-only: every transition writes who acted, in what role, and when.
package audit

import (
	"context"
	"log/slog"
	"time"

	id "patrimonio/pkg/domain"
)

// Store persists audit events. It is append-only and swapped for a memory
// implementation in tests.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByReport(ctx context.Context, reportID id.ReportID) ([]Event, error)
}

// Publisher captures structured audit events. The store write is synchronous
// so a recorded transition always has its trail entry; the optional outbox
// channel fans events out to external sinks without blocking the caller.
type Publisher struct {
	store  Store
	outbox chan<- Event
	logger *slog.Logger
}

func NewPublisher(store Store, outbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, outbox: outbox, logger: logger}
}

// Emit persists the event and offers it to the outbox. A full outbox drops
// the external copy rather than stalling a state transition; the store copy
// is the source of truth.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.outbox != nil {
		select {
		case p.outbox <- event:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit outbox full, dropping stream copy",
					"report_id", event.ReportID,
					"action", event.Action,
				)
			}
		}
	}
	return nil
}

// List returns the trail for one report, oldest first.
func (p *Publisher) List(ctx context.Context, reportID id.ReportID) ([]Event, error) {
	return p.store.ListByReport(ctx, reportID)
}
