package mapapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/geo/s2"

	id "patrimonio/pkg/domain"
	dErrors "patrimonio/pkg/domain-errors"
	"patrimonio/pkg/platform/httputil"
	"patrimonio/pkg/requestcontext"
)

// SessionHeader carries the client-held map session for anonymous viewers.
// Authenticated viewers get their session from the token instead; the header
// exists so anonymous fuzzy offsets stay stable across requests too.
const SessionHeader = "X-Map-Session"

const maxZoom = 22

// Handler exposes the map query endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the map handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts map endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/map/sites", h.HandleSites)
}

// HandleSites handles GET /map/sites?zoom=&min_lat=&min_lng=&max_lat=&max_lng=.
// The response is a GeoJSON FeatureCollection; the resolved map session is
// echoed in the X-Map-Session header so the client can present it again.
func (h *Handler) HandleSites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	query, err := parseQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sites, err := h.service.Sites(ctx, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "map query failed",
			"request_id", requestcontext.RequestID(ctx),
			"zoom", query.Zoom,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "map query served",
		"request_id", requestcontext.RequestID(ctx),
		"zoom", query.Zoom,
		"sites", len(sites),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set(SessionHeader, query.Session.String())
	httputil.WriteJSON(w, http.StatusOK, ToFeatureCollection(sites))
}

// parseQuery validates the viewport parameters and resolves the map session.
func parseQuery(r *http.Request) (Query, error) {
	zoom, err := strconv.Atoi(r.URL.Query().Get("zoom"))
	if err != nil || zoom < 0 || zoom > maxZoom {
		return Query{}, dErrors.New(dErrors.CodeInvalidInput, "zoom must be an integer between 0 and 22")
	}

	minLat, err := queryFloat(r, "min_lat", -90, 90)
	if err != nil {
		return Query{}, err
	}
	maxLat, err := queryFloat(r, "max_lat", -90, 90)
	if err != nil {
		return Query{}, err
	}
	minLng, err := queryFloat(r, "min_lng", -180, 180)
	if err != nil {
		return Query{}, err
	}
	maxLng, err := queryFloat(r, "max_lng", -180, 180)
	if err != nil {
		return Query{}, err
	}
	if minLat > maxLat {
		return Query{}, dErrors.New(dErrors.CodeInvalidInput, "min_lat must not exceed max_lat")
	}

	viewport := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLng))
	viewport = viewport.AddPoint(s2.LatLngFromDegrees(maxLat, maxLng))

	return Query{
		Zoom:     zoom,
		Viewport: viewport,
		Session:  resolveSession(r),
	}, nil
}

func queryFloat(r *http.Request, name string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil || v < lo || v > hi {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" must be a number between "+
			strconv.FormatFloat(lo, 'f', -1, 64)+" and "+strconv.FormatFloat(hi, 'f', -1, 64))
	}
	return v, nil
}

// resolveSession picks the offset-memoization key: the authenticated session
// when present, then the client-held header, then a fresh session. A fresh
// session means fresh offsets, which is acceptable - stability is only
// promised within a session.
func resolveSession(r *http.Request) id.SessionID {
	viewer := requestcontext.Viewer(r.Context())
	if viewer.SessionID != (id.SessionID{}) {
		return viewer.SessionID
	}
	if session, err := id.ParseSessionID(r.Header.Get(SessionHeader)); err == nil {
		return session
	}
	return id.NewSessionID()
}
