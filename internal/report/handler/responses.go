package handler

import (
	"time"

	"patrimonio/internal/audit"
	"patrimonio/internal/report"
)

// ReportResponse is the wire shape of a report.
//
// Latitude and Longitude are pointers: when the visibility policy denies
// exact coordinates they are omitted entirely rather than zeroed, so a
// client can never mistake a redacted position for a real one at (0, 0).
type ReportResponse struct {
	ID        string `json:"id"`
	CreatedBy string `json:"created_by"`

	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	CoordinatesExact bool     `json:"coordinates_exact"`

	Name             string   `json:"name,omitempty"`
	Region           string   `json:"region,omitempty"`
	Locality         string   `json:"locality,omitempty"`
	LocationDetail   string   `json:"location_detail,omitempty"`
	Category         string   `json:"category,omitempty"`
	Typologies       []string `json:"typologies,omitempty"`
	Culture          string   `json:"culture,omitempty"`
	Period           string   `json:"period,omitempty"`
	Conservation     string   `json:"conservation,omitempty"`
	RiskType         string   `json:"risk_type,omitempty"`
	ProtectionLevel  string   `json:"protection_level,omitempty"`
	Threats          string   `json:"threats,omitempty"`
	PrivateEnclosure bool     `json:"private_enclosure"`

	ReviewState        string `json:"review_state"`
	OriginOfAccess     string `json:"origin_of_access,omitempty"`
	AccessibilityLevel string `json:"accessibility_level,omitempty"`
	SensitivityCode    string `json:"sensitivity_code,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// FromView builds the response from a visibility-filtered read, serializing
// coordinates only when the policy allows it.
func FromView(v *report.View) ReportResponse {
	resp := fromReport(v.Report, v.ExactCoordinates)
	return resp
}

// FromOwned builds the response for a record the viewer owns or administers,
// coordinates included.
func FromOwned(r *report.Report) ReportResponse {
	return fromReport(r, true)
}

func fromReport(r *report.Report, exact bool) ReportResponse {
	resp := ReportResponse{
		ID:               r.ID.String(),
		CreatedBy:        r.CreatedBy.String(),
		CoordinatesExact: exact,
		Name:             r.Name,
		Region:           r.Region,
		Locality:         r.Locality,
		LocationDetail:   r.LocationDetail,
		Category:         r.Category,
		Typologies:       r.Typologies,
		Culture:          r.Culture,
		Period:           r.Period,
		Conservation:     r.Conservation,
		RiskType:         r.RiskType,
		ProtectionLevel:  r.ProtectionLevel,
		Threats:          r.Threats,
		PrivateEnclosure: r.PrivateEnclosure,
		ReviewState:      string(r.ReviewState),
		CreatedAt:        r.CreatedAt,
		PublishedAt:      r.PublishedAt,
	}
	if exact {
		lat, lng := r.Latitude, r.Longitude
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	if r.OriginOfAccess != nil {
		resp.OriginOfAccess = string(*r.OriginOfAccess)
	}
	if r.AccessibilityLevel != nil {
		resp.AccessibilityLevel = string(*r.AccessibilityLevel)
	}
	if r.SensitivityCode != nil {
		resp.SensitivityCode = string(*r.SensitivityCode)
	}
	return resp
}

// ListResponse wraps a collection of reports.
type ListResponse struct {
	Reports []ReportResponse `json:"reports"`
}

// FromReports builds the list response for an author's own reports.
func FromReports(reports []*report.Report) ListResponse {
	out := ListResponse{Reports: make([]ReportResponse, 0, len(reports))}
	for _, r := range reports {
		out.Reports = append(out.Reports, FromOwned(r))
	}
	return out
}

// AuditEventResponse is the wire shape of one trail entry.
type AuditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// TrailResponse wraps the audit trail of one report.
type TrailResponse struct {
	ReportID string               `json:"report_id"`
	Events   []AuditEventResponse `json:"events"`
}

// FromTrail builds the trail response, oldest entry first.
func FromTrail(reportID string, events []audit.Event) TrailResponse {
	out := TrailResponse{ReportID: reportID, Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, AuditEventResponse{
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID.String(),
			ActorRole: string(e.ActorRole),
			Action:    string(e.Action),
			Detail:    e.Detail,
		})
	}
	return out
}
