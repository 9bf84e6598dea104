package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/golang/geo/s2"

	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
	"patrimonio/pkg/platform/sentinel"
)

// InMemoryStore keeps reports in process memory. It backs unit tests and
// single-node development; transition guards mirror the PostgreSQL
// compare-and-set semantics exactly.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[id.ReportID]*Report)}
}

func (s *InMemoryStore) Create(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.reports[r.ID] = r.clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, reportID id.ReportID) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.clone(), nil
}

func (s *InMemoryStore) UpdateDescriptive(_ context.Context, reportID id.ReportID, upd Update) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.ReviewState != StatePending {
		return nil, sentinel.ErrInvalidState
	}
	upd.apply(r)
	return r.clone(), nil
}

func (s *InMemoryStore) SetAccessConditions(_ context.Context, reportID id.ReportID, origin sensitivity.Origin, level sensitivity.Level) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.ReviewState != StateInReview {
		return nil, sentinel.ErrInvalidState
	}
	r.OriginOfAccess = &origin
	r.AccessibilityLevel = &level
	return r.clone(), nil
}

func (s *InMemoryStore) AdvanceToReview(_ context.Context, reportID id.ReportID) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.ReviewState != StatePending {
		return nil, sentinel.ErrInvalidState
	}
	r.ReviewState = StateInReview
	return r.clone(), nil
}

func (s *InMemoryStore) Publish(_ context.Context, reportID id.ReportID, code sensitivity.Code, publishedBy id.UserID, publishedAt time.Time) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.ReviewState != StateInReview {
		return nil, sentinel.ErrInvalidState
	}
	r.ReviewState = StatePublished
	r.SensitivityCode = &code
	r.PublishedBy = &publishedBy
	r.PublishedAt = &publishedAt
	return r.clone(), nil
}

func (s *InMemoryStore) ListByAuthor(_ context.Context, author id.UserID) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Report
	for _, r := range s.reports {
		if r.CreatedBy == author {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListPublishedInViewport(_ context.Context, viewport s2.Rect) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Report
	for _, r := range s.reports {
		if r.ReviewState != StatePublished {
			continue
		}
		if viewport.ContainsLatLng(r.LatLng()) {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
