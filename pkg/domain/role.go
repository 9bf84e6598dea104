package domain

import dErrors "patrimonio/pkg/domain-errors"

// Role is the viewer's capability level. Roles form an ordered hierarchy
// consulted by the visibility policy and the review-state transition guards;
// the rank table below is the single source of truth for that ordering.
//
// Partner and founder are capability-equivalent to domain expert for all
// visibility decisions; the distinction matters only for administrative
// surfaces outside this service.
type Role string

const (
	RoleAnonymous        Role = "anonymous"
	RolePublicRegistered Role = "public_registered"
	RoleDomainExpert     Role = "domain_expert"
	RolePartner          Role = "partner"
	RoleFounder          Role = "founder"
)

// roleRanks orders roles by capability. Unknown roles rank below anonymous
// so a malformed token can never gain access.
var roleRanks = map[Role]int{
	RoleAnonymous:        1,
	RolePublicRegistered: 2,
	RoleDomainExpert:     3,
	RolePartner:          4,
	RoleFounder:          5,
}

// Rank returns the capability rank of the role, 0 for unknown values.
func (r Role) Rank() int { return roleRanks[r] }

// AtLeast reports whether the role has at least the capability of other.
func (r Role) AtLeast(other Role) bool { return r.Rank() >= roleRanks[other] }

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool { return roleRanks[r] > 0 }

// ParseRole constructs a Role from external input (token claims, fixtures).
// Unknown values are rejected rather than defaulted: callers that want the
// fail-closed anonymous fallback handle the error explicitly.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported role: "+s)
	}
	return r, nil
}
