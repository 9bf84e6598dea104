// Package maprender selects how a listed site is drawn on the map and owns
// the session-stable fuzzy offset shown in place of exact coordinates.
//
// Representation selection is a pure rendering/density decision, orthogonal
// to the listing gate in internal/visibility: a site excluded by IsListed is
// never passed into this package at all.
package maprender

import "patrimonio/internal/sensitivity"

// Representation is how a site is drawn at the current zoom.
type Representation string

const (
	RepresentationPin       Representation = "pin"
	RepresentationFuzzyArea Representation = "fuzzy_area"
	RepresentationHidden    Representation = "hidden"
)

// Zoom thresholds for sensitive (non-A) sites.
const (
	// PinZoom is the zoom level at which sensitive sites switch from a
	// fuzzy area to a precise pin.
	PinZoom = 15
	// FuzzyZoom is the zoom level below which sensitive sites disappear
	// from the map entirely.
	FuzzyZoom = 10
)

// FuzzyRadiusMeters is the fixed radius of the randomized offset disc.
const FuzzyRadiusMeters = 250.0

// SelectRepresentation decides the glyph for a sensitivity code at a zoom
// level. Non-sensitive A sites are always shown precisely; B and C sites are
// precise only when zoomed in, approximate at medium zoom, and hidden when
// zoomed out. Unknown codes take the sensitive path.
func SelectRepresentation(code sensitivity.Code, zoom int) Representation {
	if code == sensitivity.CodeA {
		return RepresentationPin
	}
	switch {
	case zoom >= PinZoom:
		return RepresentationPin
	case zoom >= FuzzyZoom:
		return RepresentationFuzzyArea
	default:
		return RepresentationHidden
	}
}
