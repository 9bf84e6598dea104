// Package report owns the site report record and its review-state lifecycle.
//
// A report moves pending -> in_review -> published, forward only. The
// descriptive fields are author-editable while pending; after that, the
// record changes only through controlled transitions. The sensitivity code
// is derived and persisted at publication and is null before it - a pending
// report can never carry one.
package report

import (
	"time"

	"github.com/golang/geo/s2"

	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
)

// ReviewState is the lifecycle stage of a report.
type ReviewState string

const (
	StatePending   ReviewState = "pending"
	StateInReview  ReviewState = "in_review"
	StatePublished ReviewState = "published"
)

var validStates = map[ReviewState]bool{
	StatePending:   true,
	StateInReview:  true,
	StatePublished: true,
}

// ParseReviewState hydrates a persisted state value.
func ParseReviewState(s string) (ReviewState, bool) {
	st := ReviewState(s)
	return st, validStates[st]
}

// Report is the working record of a prospective site.
//
// Coordinates are immutable once created and never user-editable after
// submission. OriginOfAccess and AccessibilityLevel are nil until a reviewer
// sets them; SensitivityCode, PublishedAt and PublishedBy are nil until the
// report is published.
type Report struct {
	ID        id.ReportID
	CreatedBy id.UserID

	Latitude  float64
	Longitude float64

	Name             string
	Region           string
	Locality         string
	LocationDetail   string
	Category         string
	Typologies       []string
	Culture          string
	Period           string
	Conservation     string
	RiskType         string
	ProtectionLevel  string
	Threats          string
	PrivateEnclosure bool

	ReviewState        ReviewState
	OriginOfAccess     *sensitivity.Origin
	AccessibilityLevel *sensitivity.Level
	SensitivityCode    *sensitivity.Code

	CreatedAt   time.Time
	PublishedAt *time.Time
	PublishedBy *id.UserID
}

// LatLng returns the exact position as an s2 coordinate.
func (r *Report) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(r.Latitude, r.Longitude)
}

// Editable reports whether descriptive fields may still change.
func (r *Report) Editable() bool {
	return r.ReviewState == StatePending
}

// MissingForPublication lists the attributes that must be set before the
// report may be published. Field names match the API's JSON keys so the
// validation error is directly actionable by the caller.
func (r *Report) MissingForPublication() []string {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Region == "" {
		missing = append(missing, "region")
	}
	if r.Category == "" {
		missing = append(missing, "category")
	}
	if r.OriginOfAccess == nil {
		missing = append(missing, "origin_of_access")
	}
	if r.AccessibilityLevel == nil {
		missing = append(missing, "accessibility_level")
	}
	return missing
}

// clone deep-copies the record so stores never hand out aliased slices or
// pointers into their own state.
func (r *Report) clone() *Report {
	cp := *r
	cp.Typologies = append([]string(nil), r.Typologies...)
	if r.OriginOfAccess != nil {
		origin := *r.OriginOfAccess
		cp.OriginOfAccess = &origin
	}
	if r.AccessibilityLevel != nil {
		level := *r.AccessibilityLevel
		cp.AccessibilityLevel = &level
	}
	if r.SensitivityCode != nil {
		code := *r.SensitivityCode
		cp.SensitivityCode = &code
	}
	if r.PublishedAt != nil {
		at := *r.PublishedAt
		cp.PublishedAt = &at
	}
	if r.PublishedBy != nil {
		by := *r.PublishedBy
		cp.PublishedBy = &by
	}
	return &cp
}

// Update carries author edits to descriptive fields. Nil pointers leave the
// corresponding field unchanged. Coordinates are deliberately absent.
type Update struct {
	Name             *string
	Region           *string
	Locality         *string
	LocationDetail   *string
	Category         *string
	Typologies       *[]string
	Culture          *string
	Period           *string
	Conservation     *string
	RiskType         *string
	ProtectionLevel  *string
	Threats          *string
	PrivateEnclosure *bool
}

// apply mutates the record in place with the non-nil fields of the update.
func (u Update) apply(r *Report) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Region != nil {
		r.Region = *u.Region
	}
	if u.Locality != nil {
		r.Locality = *u.Locality
	}
	if u.LocationDetail != nil {
		r.LocationDetail = *u.LocationDetail
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Typologies != nil {
		r.Typologies = append([]string(nil), (*u.Typologies)...)
	}
	if u.Culture != nil {
		r.Culture = *u.Culture
	}
	if u.Period != nil {
		r.Period = *u.Period
	}
	if u.Conservation != nil {
		r.Conservation = *u.Conservation
	}
	if u.RiskType != nil {
		r.RiskType = *u.RiskType
	}
	if u.ProtectionLevel != nil {
		r.ProtectionLevel = *u.ProtectionLevel
	}
	if u.Threats != nil {
		r.Threats = *u.Threats
	}
	if u.PrivateEnclosure != nil {
		r.PrivateEnclosure = *u.PrivateEnclosure
	}
}

// Draft is the author's submission. Coordinates are fixed here for the
// lifetime of the report.
type Draft struct {
	Latitude  float64
	Longitude float64

	Name             string
	Region           string
	Locality         string
	LocationDetail   string
	Category         string
	Typologies       []string
	Culture          string
	Period           string
	Conservation     string
	RiskType         string
	ProtectionLevel  string
	Threats          string
	PrivateEnclosure bool
}
