package mapapi

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"patrimonio/internal/maprender"
	"patrimonio/internal/report"
	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
	"patrimonio/pkg/requestcontext"
)

type MapServiceSuite struct {
	suite.Suite
	store   *report.InMemoryStore
	service *Service
}

func TestMapServiceSuite(t *testing.T) {
	suite.Run(t, new(MapServiceSuite))
}

func (s *MapServiceSuite) SetupTest() {
	s.store = report.NewInMemoryStore()
	var err error
	s.service, err = NewService(
		s.store,
		maprender.NewInMemoryOffsetCache(),
		maprender.NewGenerator(maprender.FuzzyRadiusMeters, rand.NewSource(7)),
		nil,
		nil,
	)
	s.Require().NoError(err)
}

// seedPublished inserts a published report directly into the store.
func (s *MapServiceSuite) seedPublished(lat, lng float64, code sensitivity.Code) *report.Report {
	now := time.Now()
	publisher := id.UserID(uuid.New())
	r := &report.Report{
		ID:              id.NewReportID(),
		CreatedBy:       id.UserID(uuid.New()),
		Latitude:        lat,
		Longitude:       lng,
		Name:            "Quebrada de Taira",
		Region:          "Antofagasta",
		Category:        "rock_art",
		ReviewState:     report.StatePublished,
		SensitivityCode: &code,
		CreatedAt:       now,
		PublishedAt:     &now,
		PublishedBy:     &publisher,
	}
	s.Require().NoError(s.store.Create(context.Background(), r))
	return r
}

func (s *MapServiceSuite) as(role id.Role) context.Context {
	viewer := requestcontext.ViewerContext{
		UserID:    id.UserID(uuid.New()),
		SessionID: id.NewSessionID(),
		Role:      role,
	}
	return requestcontext.WithViewer(context.Background(), viewer)
}

func (s *MapServiceSuite) query(zoom int) Query {
	viewport := s2.RectFromLatLng(s2.LatLngFromDegrees(-23, -69))
	viewport = viewport.AddPoint(s2.LatLngFromDegrees(-22, -68))
	return Query{Zoom: zoom, Viewport: viewport, Session: id.NewSessionID()}
}

func (s *MapServiceSuite) TestOpenSiteAlwaysPinned() {
	s.seedPublished(-22.5, -68.5, sensitivity.CodeA)

	for _, zoom := range []int{3, 12, 17} {
		sites, err := s.service.Sites(context.Background(), s.query(zoom))
		s.Require().NoError(err)
		s.Require().Len(sites, 1, "zoom %d", zoom)
		s.Equal(maprender.RepresentationPin, sites[0].Representation)
		s.True(sites[0].ExactCoordinates)
	}
}

func (s *MapServiceSuite) TestListingGate() {
	s.Run("B site is absent for anonymous viewers", func() {
		s.SetupTest()
		s.seedPublished(-22.5, -68.5, sensitivity.CodeB)

		sites, err := s.service.Sites(context.Background(), s.query(12))
		s.Require().NoError(err)
		s.Empty(sites)
	})

	s.Run("C site is absent for registered viewers", func() {
		s.SetupTest()
		s.seedPublished(-22.5, -68.5, sensitivity.CodeC)

		sites, err := s.service.Sites(s.as(id.RolePublicRegistered), s.query(12))
		s.Require().NoError(err)
		s.Empty(sites)
	})

	s.Run("published site without a code is treated as C", func() {
		s.SetupTest()
		r := s.seedPublished(-22.5, -68.5, sensitivity.CodeB)
		bare := *r
		bare.ID = id.NewReportID()
		bare.SensitivityCode = nil
		s.Require().NoError(s.store.Create(context.Background(), &bare))

		sites, err := s.service.Sites(s.as(id.RolePublicRegistered), s.query(12))
		s.Require().NoError(err)
		s.Require().Len(sites, 1, "only the coded B site is listed for a registered viewer")
		s.Equal(r.ID, sites[0].ID)
	})

	s.Run("viewport excludes sites outside it", func() {
		s.SetupTest()
		s.seedPublished(-33.4, -70.6, sensitivity.CodeA)

		sites, err := s.service.Sites(context.Background(), s.query(12))
		s.Require().NoError(err)
		s.Empty(sites)
	})
}

func (s *MapServiceSuite) TestZoomBandsForRegisteredViewer() {
	s.seedPublished(-22.5, -68.5, sensitivity.CodeB)
	ctx := s.as(id.RolePublicRegistered)

	sites, err := s.service.Sites(ctx, s.query(9))
	s.Require().NoError(err)
	s.Empty(sites, "below the fuzzy band the site disappears")

	sites, err = s.service.Sites(ctx, s.query(12))
	s.Require().NoError(err)
	s.Require().Len(sites, 1)
	s.Equal(maprender.RepresentationFuzzyArea, sites[0].Representation)
	s.Equal(maprender.FuzzyRadiusMeters, sites[0].RadiusMeters)

	sites, err = s.service.Sites(ctx, s.query(16))
	s.Require().NoError(err)
	s.Require().Len(sites, 1)
	s.Equal(maprender.RepresentationPin, sites[0].Representation)
	s.Zero(sites[0].RadiusMeters)
}

func (s *MapServiceSuite) TestExpertSeesFuzzyBandAtTruePosition() {
	r := s.seedPublished(-22.5, -68.5, sensitivity.CodeB)

	sites, err := s.service.Sites(s.as(id.RoleDomainExpert), s.query(12))
	s.Require().NoError(err)
	s.Require().Len(sites, 1)
	s.Equal(maprender.RepresentationFuzzyArea, sites[0].Representation)
	s.True(sites[0].ExactCoordinates)
	s.Equal(r.LatLng(), sites[0].Position)
}

func (s *MapServiceSuite) TestDisplacedPositionWithinRadius() {
	r := s.seedPublished(-22.5, -68.5, sensitivity.CodeB)

	sites, err := s.service.Sites(s.as(id.RolePublicRegistered), s.query(12))
	s.Require().NoError(err)
	s.Require().Len(sites, 1)

	s.False(sites[0].ExactCoordinates)
	distance := maprender.DistanceMeters(r.LatLng(), sites[0].Position)
	s.LessOrEqual(distance, maprender.FuzzyRadiusMeters)
}

func (s *MapServiceSuite) TestOffsetStableWithinSession() {
	s.seedPublished(-22.5, -68.5, sensitivity.CodeB)
	ctx := s.as(id.RolePublicRegistered)
	session := id.NewSessionID()

	q := s.query(12)
	q.Session = session
	first, err := s.service.Sites(ctx, q)
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	q = s.query(16)
	q.Session = session
	second, err := s.service.Sites(ctx, q)
	s.Require().NoError(err)
	s.Require().Len(second, 1)

	s.Equal(first[0].Position, second[0].Position,
		"pin and fuzzy area must not disagree about where the site is")
}

func (s *MapServiceSuite) TestOffsetsIndependentAcrossSessions() {
	s.seedPublished(-22.5, -68.5, sensitivity.CodeB)
	ctx := s.as(id.RolePublicRegistered)

	first, err := s.service.Sites(ctx, s.query(12))
	s.Require().NoError(err)
	second, err := s.service.Sites(ctx, s.query(12))
	s.Require().NoError(err)
	s.Require().Len(first, 1)
	s.Require().Len(second, 1)
	s.NotEqual(first[0].Position, second[0].Position)
}

func (s *MapServiceSuite) TestAuthorSeesOwnSiteExactly() {
	r := s.seedPublished(-22.5, -68.5, sensitivity.CodeB)
	ctx := requestcontext.WithViewer(context.Background(), requestcontext.ViewerContext{
		UserID:    r.CreatedBy,
		SessionID: id.NewSessionID(),
		Role:      id.RolePublicRegistered,
	})

	sites, err := s.service.Sites(ctx, s.query(16))
	s.Require().NoError(err)
	s.Require().Len(sites, 1)
	s.True(sites[0].ExactCoordinates)
	s.Equal(r.LatLng(), sites[0].Position)
}
