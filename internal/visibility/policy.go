// Package visibility decides what a viewer may see of a published site.
//
// Two independent gates, both pure functions of (sensitivity code, role):
// whether the site is listed at all, and whether its exact coordinates may
// be revealed. They are deliberately separate so a partially trusted viewer
// (a registered user seeing a B site) is listed but still never receives
// exact coordinates.
package visibility

import (
	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
)

// IsListed reports whether a site with the given sensitivity code appears in
// any listing (map, search, detail) for the given role.
//
//	          A    B    C
//	anon      yes  no   no
//	public    yes  yes  no
//	expert+   yes  yes  yes
//
// Unknown codes behave like C: visible to experts and above only. A record
// that somehow carries a corrupt code must not become public by accident.
func IsListed(code sensitivity.Code, role id.Role) bool {
	switch code {
	case sensitivity.CodeA:
		return true
	case sensitivity.CodeB:
		return role.AtLeast(id.RolePublicRegistered)
	default:
		return role.AtLeast(id.RoleDomainExpert)
	}
}

// CanSeeExactCoordinates reports whether the role is entitled to the true
// position of a site. Non-A sites reveal exact coordinates to domain experts
// and above only; every other viewer must be served an approximate position.
func CanSeeExactCoordinates(code sensitivity.Code, role id.Role) bool {
	if code == sensitivity.CodeA {
		return true
	}
	return role.AtLeast(id.RoleDomainExpert)
}
