// Package mapapi assembles the map view of published sites: which sites fall
// in the viewport, whether the viewer may see each one, how each is drawn at
// the current zoom, and - for viewers without coordinate access - the
// session-stable fuzzy position shown instead of the real one.
package mapapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang/geo/s2"

	"patrimonio/internal/mapapi/metrics"
	"patrimonio/internal/maprender"
	"patrimonio/internal/report"
	"patrimonio/internal/sensitivity"
	"patrimonio/internal/visibility"
	id "patrimonio/pkg/domain"
	"patrimonio/pkg/requestcontext"
)

// Store is the slice of the report store the map needs.
type Store interface {
	ListPublishedInViewport(ctx context.Context, viewport s2.Rect) ([]*report.Report, error)
}

// Query is one viewport request.
type Query struct {
	Zoom     int
	Viewport s2.Rect
	// Session keys fuzzy-offset memoization. The handler resolves it from
	// the viewer's token or the client-held map session header.
	Session id.SessionID
}

// Site is one renderable entry of the map response.
type Site struct {
	ID              id.ReportID
	Name            string
	Category        string
	SensitivityCode sensitivity.Code
	Representation  maprender.Representation

	// Position is exact when ExactCoordinates is true, otherwise the
	// session-stable displaced point.
	Position         s2.LatLng
	ExactCoordinates bool
	// RadiusMeters is set for fuzzy areas, zero for pins.
	RadiusMeters float64
}

// Service filters and renders published sites for a viewport.
type Service struct {
	store     Store
	offsets   maprender.OffsetCache
	generator *maprender.Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService constructs the map service.
func NewService(store Store, offsets maprender.OffsetCache, generator *maprender.Generator, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("report store is required")
	}
	if offsets == nil {
		return nil, errors.New("offset cache is required")
	}
	if generator == nil {
		return nil, errors.New("offset generator is required")
	}
	return &Service{store: store, offsets: offsets, generator: generator, metrics: m, logger: logger}, nil
}

// Sites returns the renderable sites for a viewport query.
//
// Per site, three independent decisions stack:
//  1. listing: a site the viewer may not list is absent, not hidden
//  2. representation: pin, fuzzy area, or hidden at this zoom
//  3. position: exact for viewers with coordinate access, otherwise the
//     memoized fuzzy offset for this session
//
// A site whose fuzzy offset cannot be resolved is dropped rather than served
// at its true position.
func (s *Service) Sites(ctx context.Context, q Query) ([]Site, error) {
	viewer := requestcontext.Viewer(ctx)
	role := viewer.EffectiveRole()

	reports, err := s.store.ListPublishedInViewport(ctx, q.Viewport)
	if err != nil {
		return nil, fmt.Errorf("list sites in viewport: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ViewportQueries.Inc()
	}

	sites := make([]Site, 0, len(reports))
	for _, r := range reports {
		code := sensitivity.CodeC // fail closed if the persisted code is absent
		if r.SensitivityCode != nil {
			code = *r.SensitivityCode
		}

		isAuthor := viewer.Authenticated() && viewer.UserID == r.CreatedBy
		if !isAuthor && !visibility.IsListed(code, role) {
			continue
		}

		representation := maprender.SelectRepresentation(code, q.Zoom)
		if representation == maprender.RepresentationHidden {
			continue
		}

		site := Site{
			ID:              r.ID,
			Name:            r.Name,
			Category:        r.Category,
			SensitivityCode: code,
			Representation:  representation,
		}
		if representation == maprender.RepresentationFuzzyArea {
			site.RadiusMeters = maprender.FuzzyRadiusMeters
		}

		if isAuthor || visibility.CanSeeExactCoordinates(code, role) {
			site.Position = r.LatLng()
			site.ExactCoordinates = true
		} else {
			position, err := s.displaced(ctx, q.Session, r)
			if err != nil {
				if s.logger != nil {
					s.logger.WarnContext(ctx, "dropping site, offset unavailable",
						"report_id", r.ID,
						"error", err,
					)
				}
				if s.metrics != nil {
					s.metrics.OffsetFailures.Inc()
				}
				continue
			}
			site.Position = position
		}

		if s.metrics != nil {
			s.metrics.ObserveSite(string(representation))
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// displaced resolves the session-stable fuzzy position of a site.
func (s *Service) displaced(ctx context.Context, session id.SessionID, r *report.Report) (s2.LatLng, error) {
	return s.offsets.GetOrCreate(ctx, session, r.ID, func() s2.LatLng {
		return s.generator.Displace(r.LatLng())
	})
}
