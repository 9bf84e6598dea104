package report

import (
	"context"
	"time"

	"github.com/golang/geo/s2"

	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
)

// Store persists reports. Implementations are pure I/O: state guards exist
// here only so transitions are atomic (compare-and-set on the current review
// state); the service layer owns authorization and validation and translates
// the sentinels this interface returns.
//
// Guard failures return sentinel.ErrInvalidState; missing rows return
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, reportID id.ReportID) (*Report, error)

	// UpdateDescriptive applies author edits while the report is pending.
	UpdateDescriptive(ctx context.Context, reportID id.ReportID, upd Update) (*Report, error)

	// SetAccessConditions records reviewer-assigned accessibility attributes
	// while the report is in review.
	SetAccessConditions(ctx context.Context, reportID id.ReportID, origin sensitivity.Origin, level sensitivity.Level) (*Report, error)

	// AdvanceToReview transitions pending -> in_review.
	AdvanceToReview(ctx context.Context, reportID id.ReportID) (*Report, error)

	// Publish transitions in_review -> published with at-most-one-writer
	// semantics: the update is keyed on the current state so two concurrent
	// publish attempts cannot both succeed.
	Publish(ctx context.Context, reportID id.ReportID, code sensitivity.Code, publishedBy id.UserID, publishedAt time.Time) (*Report, error)

	ListByAuthor(ctx context.Context, author id.UserID) ([]*Report, error)

	// ListPublishedInViewport returns published reports whose exact position
	// falls inside the viewport rectangle.
	ListPublishedInViewport(ctx context.Context, viewport s2.Rect) ([]*Report, error)
}
