// Caminho: internal/policy/policy_test.go
// Resumo: Testes da política de autorização em dois níveis.

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManageAdmins(t *testing.T) {
	assert.True(t, CanManageAdmins("superadmin"))
	assert.True(t, CanManageAdmins(" SuperAdmin "))
	assert.False(t, CanManageAdmins("admin"))
	assert.False(t, CanManageAdmins(""))
}

func TestIsProtectedTarget(t *testing.T) {
	assert.True(t, IsProtectedTarget("superadmin"))
	assert.True(t, IsProtectedTarget("SUPERADMIN"))
	assert.False(t, IsProtectedTarget("admin"))
}

func TestDefaultRole(t *testing.T) {
	assert.Equal(t, "admin", DefaultRole(""))
	assert.Equal(t, "admin", DefaultRole("  "))
	assert.Equal(t, "superadmin", DefaultRole("SuperAdmin"))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("admin"))
	assert.True(t, IsValidRole("superadmin"))
	assert.False(t, IsValidRole("root"))
	assert.False(t, IsValidRole(""))
}
