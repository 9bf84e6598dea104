package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"patrimonio/internal/audit"
	"patrimonio/internal/report/metrics"
	"patrimonio/internal/sensitivity"
	"patrimonio/internal/visibility"
	id "patrimonio/pkg/domain"
	dErrors "patrimonio/pkg/domain-errors"
	"patrimonio/pkg/platform/sentinel"
	"patrimonio/pkg/requestcontext"
)

// AuditPublisher records lifecycle transitions. Defined here so the service
// depends on the capability, not the audit package's concrete publisher.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, reportID id.ReportID) ([]audit.Event, error)
}

// Service guards the review-state machine. All transition authorization and
// validation happens here; stores only enforce atomicity of the transitions
// themselves. Authorization failures are generic by design - they must not
// reveal which fields a sensitive report would have required.
type Service struct {
	store   Store
	audit   AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService constructs the report service.
func NewService(store Store, auditPub AuditPublisher, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("report store is required")
	}
	if auditPub == nil {
		return nil, errors.New("audit publisher is required")
	}
	return &Service{store: store, audit: auditPub, metrics: m, logger: logger}, nil
}

// Submit creates a pending report owned by the authenticated viewer.
// Coordinates are validated here and never change afterwards.
func (s *Service) Submit(ctx context.Context, draft Draft) (*Report, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.Authenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !viewer.EffectiveRole().AtLeast(id.RolePublicRegistered) {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient role")
	}
	if draft.Latitude < -90 || draft.Latitude > 90 || draft.Longitude < -180 || draft.Longitude > 180 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "coordinates out of range")
	}

	r := &Report{
		ID:               id.NewReportID(),
		CreatedBy:        viewer.UserID,
		Latitude:         draft.Latitude,
		Longitude:        draft.Longitude,
		Name:             draft.Name,
		Region:           draft.Region,
		Locality:         draft.Locality,
		LocationDetail:   draft.LocationDetail,
		Category:         draft.Category,
		Typologies:       append([]string(nil), draft.Typologies...),
		Culture:          draft.Culture,
		Period:           draft.Period,
		Conservation:     draft.Conservation,
		RiskType:         draft.RiskType,
		ProtectionLevel:  draft.ProtectionLevel,
		Threats:          draft.Threats,
		PrivateEnclosure: draft.PrivateEnclosure,
		ReviewState:      StatePending,
		CreatedAt:        requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ReportsSubmitted.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		ReportID:  r.ID,
		ActorID:   viewer.UserID,
		ActorRole: viewer.EffectiveRole(),
		Action:    audit.ActionReportSubmitted,
	})
	return r, nil
}

// UpdatePending applies author edits to descriptive fields. Only the
// original author may edit, and only while the report is pending.
func (s *Service) UpdatePending(ctx context.Context, reportID id.ReportID, upd Update) (*Report, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.Authenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	r, err := s.store.Get(ctx, reportID)
	if err != nil {
		return nil, s.translateStoreError(err, "report")
	}
	if r.CreatedBy != viewer.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the author may edit a report")
	}

	updated, err := s.store.UpdateDescriptive(ctx, reportID, upd)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "report is no longer editable")
		}
		return nil, s.translateStoreError(err, "report")
	}
	return updated, nil
}

// AdvanceToReview transitions pending -> in_review. Domain experts and above
// only.
func (s *Service) AdvanceToReview(ctx context.Context, reportID id.ReportID) (*Report, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.EffectiveRole().AtLeast(id.RoleDomainExpert) {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient role")
	}

	r, err := s.store.AdvanceToReview(ctx, reportID)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "report is not pending")
		}
		return nil, s.translateStoreError(err, "report")
	}

	s.emitAudit(ctx, audit.Event{
		ReportID:  r.ID,
		ActorID:   viewer.UserID,
		ActorRole: viewer.EffectiveRole(),
		Action:    audit.ActionReportAdvanced,
	})
	return r, nil
}

// SetAccessConditions records the reviewer-assigned accessibility
// attributes on an in-review report. The attributes feed the sensitivity
// classifier at publication; they are not classified eagerly here so a
// reviewer can revise them until publish freezes the record.
func (s *Service) SetAccessConditions(ctx context.Context, reportID id.ReportID, origin sensitivity.Origin, level sensitivity.Level) (*Report, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.EffectiveRole().AtLeast(id.RoleDomainExpert) {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient role")
	}

	r, err := s.store.SetAccessConditions(ctx, reportID, origin, level)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "report is not in review")
		}
		return nil, s.translateStoreError(err, "report")
	}

	s.emitAudit(ctx, audit.Event{
		ReportID:  r.ID,
		ActorID:   viewer.UserID,
		ActorRole: viewer.EffectiveRole(),
		Action:    audit.ActionAccessConditionsSet,
		Detail:    string(origin) + "/" + string(level),
	})
	return r, nil
}

// Publish transitions in_review -> published. Partners and above only.
//
// The authorization check runs before anything else so an unauthorized
// caller learns nothing about the record - not even which fields it is
// missing. Validation failures report the missing field list and leave the
// state untouched. The store transition is a compare-and-set, so a
// concurrent publish can win the race at most once; the loser gets an
// invalid-transition rejection.
func (s *Service) Publish(ctx context.Context, reportID id.ReportID) (*Report, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.EffectiveRole().AtLeast(id.RolePartner) {
		s.observeRejection("forbidden")
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient role")
	}

	r, err := s.store.Get(ctx, reportID)
	if err != nil {
		return nil, s.translateStoreError(err, "report")
	}
	if r.ReviewState != StateInReview {
		s.observeRejection("invalid_transition")
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "report is not in review")
	}
	if missing := r.MissingForPublication(); len(missing) > 0 {
		s.observeRejection("missing_fields")
		return nil, dErrors.NewMissingFields(missing...)
	}

	code := sensitivity.Classify(*r.OriginOfAccess, *r.AccessibilityLevel)
	published, err := s.store.Publish(ctx, reportID, code, viewer.UserID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			s.observeRejection("invalid_transition")
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "report is not in review")
		}
		return nil, s.translateStoreError(err, "report")
	}

	if s.metrics != nil {
		s.metrics.ObservePublished(string(code))
	}
	s.emitAudit(ctx, audit.Event{
		ReportID:  published.ID,
		ActorID:   viewer.UserID,
		ActorRole: viewer.EffectiveRole(),
		Action:    audit.ActionReportPublished,
		Detail:    string(code),
	})
	return published, nil
}

// View is a visibility-filtered read of a report. ExactCoordinates tells
// the transport layer whether the true position may be serialized.
type View struct {
	Report           *Report
	ExactCoordinates bool
}

// Get returns a report subject to the visibility policy. Reports the viewer
// may not see surface as not-found: a denial must not confirm existence.
// The author always sees their own report, including its exact coordinates.
func (s *Service) Get(ctx context.Context, reportID id.ReportID) (*View, error) {
	r, err := s.store.Get(ctx, reportID)
	if err != nil {
		return nil, s.translateStoreError(err, "report")
	}

	viewer := requestcontext.Viewer(ctx)
	role := viewer.EffectiveRole()
	isAuthor := viewer.Authenticated() && viewer.UserID == r.CreatedBy

	if r.ReviewState != StatePublished {
		if isAuthor || role.AtLeast(id.RoleDomainExpert) {
			return &View{Report: r, ExactCoordinates: true}, nil
		}
		return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
	}

	code := sensitivity.CodeC // fail closed if the persisted code is absent
	if r.SensitivityCode != nil {
		code = *r.SensitivityCode
	}
	if !isAuthor && !visibility.IsListed(code, role) {
		return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
	}
	return &View{
		Report:           r,
		ExactCoordinates: isAuthor || visibility.CanSeeExactCoordinates(code, role),
	}, nil
}

// ListMine returns the viewer's own reports in every state.
func (s *Service) ListMine(ctx context.Context) ([]*Report, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.Authenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	reports, err := s.store.ListByAuthor(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Trail returns the audit trail of a report. Domain experts and above only.
func (s *Service) Trail(ctx context.Context, reportID id.ReportID) ([]audit.Event, error) {
	viewer := requestcontext.Viewer(ctx)
	if !viewer.EffectiveRole().AtLeast(id.RoleDomainExpert) {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient role")
	}
	if _, err := s.store.Get(ctx, reportID); err != nil {
		return nil, s.translateStoreError(err, "report")
	}
	return s.audit.List(ctx, reportID)
}

// emitAudit records a lifecycle event. The transition already happened, so a
// failing trail write is logged rather than unwinding the operation.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"report_id", event.ReportID,
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) observeRejection(reason string) {
	if s.metrics != nil {
		s.metrics.ObservePublishRejected(reason)
	}
}

func (s *Service) translateStoreError(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	}
	return fmt.Errorf("%s store: %w", entity, err)
}
