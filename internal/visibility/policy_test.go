package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
)

var allRoles = []id.Role{
	id.RoleAnonymous,
	id.RolePublicRegistered,
	id.RoleDomainExpert,
	id.RolePartner,
	id.RoleFounder,
}

func TestIsListed(t *testing.T) {
	t.Run("matches the policy table", func(t *testing.T) {
		cases := []struct {
			code sensitivity.Code
			role id.Role
			want bool
		}{
			{sensitivity.CodeA, id.RoleAnonymous, true},
			{sensitivity.CodeA, id.RolePublicRegistered, true},
			{sensitivity.CodeA, id.RoleDomainExpert, true},
			{sensitivity.CodeB, id.RoleAnonymous, false},
			{sensitivity.CodeB, id.RolePublicRegistered, true},
			{sensitivity.CodeB, id.RoleDomainExpert, true},
			{sensitivity.CodeC, id.RoleAnonymous, false},
			{sensitivity.CodeC, id.RolePublicRegistered, false},
			{sensitivity.CodeC, id.RoleDomainExpert, true},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.want, IsListed(tc.code, tc.role),
				"IsListed(%s, %s)", tc.code, tc.role)
		}
	})

	t.Run("partner and founder are expert-equivalent", func(t *testing.T) {
		for _, role := range []id.Role{id.RolePartner, id.RoleFounder} {
			assert.True(t, IsListed(sensitivity.CodeC, role))
			assert.True(t, CanSeeExactCoordinates(sensitivity.CodeB, role))
		}
	})

	t.Run("unknown code behaves like C", func(t *testing.T) {
		corrupt := sensitivity.Code("Z")
		assert.False(t, IsListed(corrupt, id.RolePublicRegistered))
		assert.True(t, IsListed(corrupt, id.RoleDomainExpert))
		assert.False(t, CanSeeExactCoordinates(corrupt, id.RolePublicRegistered))
	})
}

func TestCanSeeExactCoordinates(t *testing.T) {
	t.Run("A sites are precise for everyone", func(t *testing.T) {
		for _, role := range allRoles {
			assert.True(t, CanSeeExactCoordinates(sensitivity.CodeA, role), "role %s", role)
		}
	})

	t.Run("B and C require expert or above", func(t *testing.T) {
		for _, code := range []sensitivity.Code{sensitivity.CodeB, sensitivity.CodeC} {
			assert.False(t, CanSeeExactCoordinates(code, id.RoleAnonymous))
			assert.False(t, CanSeeExactCoordinates(code, id.RolePublicRegistered))
			assert.True(t, CanSeeExactCoordinates(code, id.RoleDomainExpert))
		}
	})

	t.Run("listing and precision are independent gates", func(t *testing.T) {
		// A registered viewer sees B sites listed but never precisely.
		assert.True(t, IsListed(sensitivity.CodeB, id.RolePublicRegistered))
		assert.False(t, CanSeeExactCoordinates(sensitivity.CodeB, id.RolePublicRegistered))
	})
}
