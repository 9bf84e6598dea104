package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"patrimonio/internal/audit"
	"patrimonio/internal/report"
	id "patrimonio/pkg/domain"
	"patrimonio/pkg/requestcontext"
)

// The handler tests run the real service against memory stores; the HTTP
// layer's job is translation, and translation is best checked end to end:
// status codes, the error envelope, and coordinate redaction on the wire.

type ReportHandlerSuite struct {
	suite.Suite
	router chi.Router

	author  requestcontext.ViewerContext
	citizen requestcontext.ViewerContext
	expert  requestcontext.ViewerContext
	partner requestcontext.ViewerContext
}

func TestReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerSuite))
}

func (s *ReportHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := report.NewService(
		report.NewInMemoryStore(),
		audit.NewPublisher(audit.NewInMemoryStore(), nil, logger),
		nil,
		logger,
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)

	s.author = s.viewer(id.RolePublicRegistered)
	s.citizen = s.viewer(id.RolePublicRegistered)
	s.expert = s.viewer(id.RoleDomainExpert)
	s.partner = s.viewer(id.RolePartner)
}

func (s *ReportHandlerSuite) viewer(role id.Role) requestcontext.ViewerContext {
	return requestcontext.ViewerContext{
		UserID:    id.UserID(uuid.New()),
		SessionID: id.NewSessionID(),
		Role:      role,
	}
}

// do issues a request as the given viewer. A zero viewer means anonymous.
func (s *ReportHandlerSuite) do(viewer requestcontext.ViewerContext, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(requestcontext.WithViewer(req.Context(), viewer))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ReportHandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *ReportHandlerSuite) submit() string {
	rec := s.do(s.author, http.MethodPost, "/reports", map[string]any{
		"latitude":  -27.1251,
		"longitude": -109.2771,
		"name":      "Ahu Akivi",
		"region":    "Valparaíso",
		"category":  "ceremonial",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	return s.decode(rec)["id"].(string)
}

func (s *ReportHandlerSuite) publishSensitive(reportID string) {
	rec := s.do(s.expert, http.MethodPost, "/reports/"+reportID+"/review", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(s.expert, http.MethodPut, "/reports/"+reportID+"/access-conditions", map[string]any{
		"origin_of_access":    "private_land",
		"accessibility_level": "protected",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(s.partner, http.MethodPost, "/reports/"+reportID+"/publish", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
}

func (s *ReportHandlerSuite) TestSubmit() {
	s.Run("creates a pending report", func() {
		rec := s.do(s.author, http.MethodPost, "/reports", map[string]any{
			"latitude":  -27.1251,
			"longitude": -109.2771,
			"name":      "Ahu Akivi",
		})
		s.Equal(http.StatusCreated, rec.Code)
		body := s.decode(rec)
		s.Equal("pending", body["review_state"])
		s.Equal(true, body["coordinates_exact"])
	})

	s.Run("missing coordinates rejected", func() {
		rec := s.do(s.author, http.MethodPost, "/reports", map[string]any{"name": "no location"})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_input", s.decode(rec)["error"])
	})

	s.Run("anonymous rejected", func() {
		rec := s.do(requestcontext.ViewerContext{}, http.MethodPost, "/reports", map[string]any{
			"latitude":  -27.0,
			"longitude": -109.0,
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("malformed body rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/reports", bytes.NewReader([]byte("{not json")))
		req = req.WithContext(requestcontext.WithViewer(req.Context(), s.author))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReportHandlerSuite) TestLifecycle() {
	s.Run("full pending to published flow", func() {
		reportID := s.submit()
		s.publishSensitive(reportID)

		rec := s.do(s.expert, http.MethodGet, "/reports/"+reportID, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal("published", body["review_state"])
		s.Equal("B", body["sensitivity_code"])
	})

	s.Run("publish with missing fields returns the field list", func() {
		rec := s.do(s.author, http.MethodPost, "/reports", map[string]any{
			"latitude":  -27.0,
			"longitude": -109.0,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		reportID := s.decode(rec)["id"].(string)

		rec = s.do(s.expert, http.MethodPost, "/reports/"+reportID+"/review", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(s.partner, http.MethodPost, "/reports/"+reportID+"/publish", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		body := s.decode(rec)
		s.Equal("missing_fields", body["error"])
		s.Contains(body["missing_fields"], "name")
		s.Contains(body["missing_fields"], "accessibility_level")
	})

	s.Run("publish by registered user is forbidden without detail", func() {
		reportID := s.submit()
		rec := s.do(s.expert, http.MethodPost, "/reports/"+reportID+"/review", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(s.citizen, http.MethodPost, "/reports/"+reportID+"/publish", nil)
		s.Equal(http.StatusForbidden, rec.Code)
		body := s.decode(rec)
		s.Equal("forbidden", body["error"])
		s.NotContains(body, "missing_fields")
	})

	s.Run("publish from pending conflicts", func() {
		reportID := s.submit()
		rec := s.do(s.partner, http.MethodPost, "/reports/"+reportID+"/publish", nil)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("invalid_transition", s.decode(rec)["error"])
	})

	s.Run("invalid access conditions rejected", func() {
		reportID := s.submit()
		rec := s.do(s.expert, http.MethodPost, "/reports/"+reportID+"/review", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(s.expert, http.MethodPut, "/reports/"+reportID+"/access-conditions", map[string]any{
			"origin_of_access":    "moonbase",
			"accessibility_level": "protected",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReportHandlerSuite) TestGetRedaction() {
	s.Run("registered viewer gets the listing without coordinates", func() {
		reportID := s.submit()
		s.publishSensitive(reportID)

		rec := s.do(s.citizen, http.MethodGet, "/reports/"+reportID, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal(false, body["coordinates_exact"])
		s.NotContains(body, "latitude")
		s.NotContains(body, "longitude")
	})

	s.Run("expert gets exact coordinates", func() {
		reportID := s.submit()
		s.publishSensitive(reportID)

		rec := s.do(s.expert, http.MethodGet, "/reports/"+reportID, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal(true, body["coordinates_exact"])
		s.InDelta(-27.1251, body["latitude"].(float64), 1e-9)
	})

	s.Run("anonymous viewer sees nothing at all", func() {
		reportID := s.submit()
		s.publishSensitive(reportID)

		rec := s.do(requestcontext.ViewerContext{}, http.MethodGet, "/reports/"+reportID, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed id rejected before any lookup", func() {
		rec := s.do(s.expert, http.MethodGet, "/reports/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReportHandlerSuite) TestUpdate() {
	s.Run("author edits a pending report", func() {
		reportID := s.submit()
		rec := s.do(s.author, http.MethodPatch, "/reports/"+reportID, map[string]any{
			"locality": "Hanga Roa",
		})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("Hanga Roa", s.decode(rec)["locality"])
	})

	s.Run("edit after review conflicts", func() {
		reportID := s.submit()
		rec := s.do(s.expert, http.MethodPost, "/reports/"+reportID+"/review", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(s.author, http.MethodPatch, "/reports/"+reportID, map[string]any{"name": "late"})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *ReportHandlerSuite) TestListMine() {
	s.Run("returns only the viewer's reports", func() {
		s.submit()
		s.submit()

		rec := s.do(s.author, http.MethodGet, "/reports/mine", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var body ListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Len(body.Reports, 2)

		rec = s.do(s.citizen, http.MethodGet, "/reports/mine", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Empty(body.Reports)
	})
}

func (s *ReportHandlerSuite) TestTrail() {
	s.Run("expert reads the audit trail", func() {
		reportID := s.submit()
		s.publishSensitive(reportID)

		rec := s.do(s.expert, http.MethodGet, "/reports/"+reportID+"/audit", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var body TrailResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Len(body.Events, 4)
		s.Equal("report_published", body.Events[3].Action)
	})

	s.Run("registered viewer is forbidden", func() {
		reportID := s.submit()
		rec := s.do(s.citizen, http.MethodGet, "/reports/"+reportID+"/audit", nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}
