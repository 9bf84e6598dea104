// Package handler exposes the report lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"patrimonio/internal/audit"
	"patrimonio/internal/report"
	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
	dErrors "patrimonio/pkg/domain-errors"
	"patrimonio/pkg/platform/httputil"
	"patrimonio/pkg/requestcontext"
)

// Service defines the report operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, draft report.Draft) (*report.Report, error)
	UpdatePending(ctx context.Context, reportID id.ReportID, upd report.Update) (*report.Report, error)
	AdvanceToReview(ctx context.Context, reportID id.ReportID) (*report.Report, error)
	SetAccessConditions(ctx context.Context, reportID id.ReportID, origin sensitivity.Origin, level sensitivity.Level) (*report.Report, error)
	Publish(ctx context.Context, reportID id.ReportID) (*report.Report, error)
	Get(ctx context.Context, reportID id.ReportID) (*report.View, error)
	ListMine(ctx context.Context) ([]*report.Report, error)
	Trail(ctx context.Context, reportID id.ReportID) ([]audit.Event, error)
}

// Handler wires report endpoints to the report service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a report handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts report endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/mine", h.HandleListMine)
		r.Route("/{reportID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Post("/review", h.HandleAdvanceToReview)
			r.Put("/access-conditions", h.HandleSetAccessConditions)
			r.Post("/publish", h.HandlePublish)
			r.Get("/audit", h.HandleTrail)
		})
	})
}

// HandleSubmit handles POST /reports.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.DecodeJSON[SubmitRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Submit(ctx, req.ToDraft())
	if err != nil {
		h.logWarn(ctx, "report submission rejected", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "report submitted",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", created.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromOwned(created))
}

// HandleGet handles GET /reports/{reportID}. The response redacts exact
// coordinates whenever the visibility policy says so.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), reportID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromView(view))
}

// HandleUpdate handles PATCH /reports/{reportID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.service.UpdatePending(ctx, reportID, req.ToUpdate())
	if err != nil {
		h.logWarn(ctx, "report update rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOwned(updated))
}

// HandleListMine handles GET /reports/mine.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReports(reports))
}

// HandleAdvanceToReview handles POST /reports/{reportID}/review.
func (h *Handler) HandleAdvanceToReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	advanced, err := h.service.AdvanceToReview(ctx, reportID)
	if err != nil {
		h.logWarn(ctx, "review transition rejected", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "report advanced to review",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", advanced.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromOwned(advanced))
}

// HandleSetAccessConditions handles PUT /reports/{reportID}/access-conditions.
func (h *Handler) HandleSetAccessConditions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[AccessConditionsRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.SetAccessConditions(ctx, reportID, req.ParsedOrigin(), req.ParsedLevel())
	if err != nil {
		h.logWarn(ctx, "access conditions rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOwned(updated))
}

// HandlePublish handles POST /reports/{reportID}/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}

	published, err := h.service.Publish(ctx, reportID)
	if err != nil {
		h.logWarn(ctx, "publication rejected", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "report published",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", published.ID,
		"sensitivity_code", published.SensitivityCode,
	)
	httputil.WriteJSON(w, http.StatusOK, FromOwned(published))
}

// HandleTrail handles GET /reports/{reportID}/audit.
func (h *Handler) HandleTrail(w http.ResponseWriter, r *http.Request) {
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	events, err := h.service.Trail(r.Context(), reportID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTrail(reportID.String(), events))
}

// reportID extracts and validates the path parameter, replying on failure.
func (h *Handler) reportID(w http.ResponseWriter, r *http.Request) (id.ReportID, bool) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ReportID{}, false
	}
	return reportID, true
}

// logWarn records a rejected operation. Expected domain rejections log at
// warn; anything without a domain code is a real failure and logs at error.
func (h *Handler) logWarn(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
