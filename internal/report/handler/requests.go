package handler

import (
	"strings"

	"patrimonio/internal/report"
	"patrimonio/internal/sensitivity"
	dErrors "patrimonio/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /v1/reports.
type SubmitRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Name             string   `json:"name"`
	Region           string   `json:"region"`
	Locality         string   `json:"locality"`
	LocationDetail   string   `json:"location_detail"`
	Category         string   `json:"category"`
	Typologies       []string `json:"typologies"`
	Culture          string   `json:"culture"`
	Period           string   `json:"period"`
	Conservation     string   `json:"conservation"`
	RiskType         string   `json:"risk_type"`
	ProtectionLevel  string   `json:"protection_level"`
	Threats          string   `json:"threats"`
	PrivateEnclosure bool     `json:"private_enclosure"`
}

// Validate checks the submission. Coordinates are the only hard requirement
// at submission time; descriptive completeness is enforced at publication.
func (r *SubmitRequest) Validate() error {
	if r.Latitude == nil || r.Longitude == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude and longitude are required")
	}
	if *r.Latitude < -90 || *r.Latitude > 90 {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude must be between -90 and 90")
	}
	if *r.Longitude < -180 || *r.Longitude > 180 {
		return dErrors.New(dErrors.CodeInvalidInput, "longitude must be between -180 and 180")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Region = strings.TrimSpace(r.Region)
	r.Category = strings.TrimSpace(r.Category)
	return nil
}

// ToDraft converts the validated request into the domain draft.
func (r *SubmitRequest) ToDraft() report.Draft {
	return report.Draft{
		Latitude:         *r.Latitude,
		Longitude:        *r.Longitude,
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
	}
}

// UpdateRequest is the HTTP request body for PATCH /v1/reports/{reportID}.
// Absent fields stay untouched; coordinates are not editable and have no
// place here.
type UpdateRequest struct {
	Name             *string   `json:"name"`
	Region           *string   `json:"region"`
	Locality         *string   `json:"locality"`
	LocationDetail   *string   `json:"location_detail"`
	Category         *string   `json:"category"`
	Typologies       *[]string `json:"typologies"`
	Culture          *string   `json:"culture"`
	Period           *string   `json:"period"`
	Conservation     *string   `json:"conservation"`
	RiskType         *string   `json:"risk_type"`
	ProtectionLevel  *string   `json:"protection_level"`
	Threats          *string   `json:"threats"`
	PrivateEnclosure *bool     `json:"private_enclosure"`
}

// ToUpdate converts the request into the domain update.
func (r *UpdateRequest) ToUpdate() report.Update {
	return report.Update{
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
	}
}

// AccessConditionsRequest is the HTTP request body for
// PUT /v1/reports/{reportID}/access-conditions.
type AccessConditionsRequest struct {
	OriginOfAccess     string `json:"origin_of_access"`
	AccessibilityLevel string `json:"accessibility_level"`

	parsedOrigin sensitivity.Origin
	parsedLevel  sensitivity.Level
}

// Validate parses both attributes against their allowlists.
func (r *AccessConditionsRequest) Validate() error {
	origin, err := sensitivity.ParseOrigin(strings.TrimSpace(r.OriginOfAccess))
	if err != nil {
		return err
	}
	level, err := sensitivity.ParseLevel(strings.TrimSpace(r.AccessibilityLevel))
	if err != nil {
		return err
	}
	r.parsedOrigin = origin
	r.parsedLevel = level
	return nil
}

// ParsedOrigin returns the validated origin of access.
func (r *AccessConditionsRequest) ParsedOrigin() sensitivity.Origin {
	return r.parsedOrigin
}

// ParsedLevel returns the validated accessibility level.
func (r *AccessConditionsRequest) ParsedLevel() sensitivity.Level {
	return r.parsedLevel
}
