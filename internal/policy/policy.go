// Caminho: internal/policy/policy.go
// Resumo: Política de autorização em dois níveis (admin, superadmin). Funções puras
// de (papel, operação), sem estado.

package policy

import (
	"strings"

	"github.com/lfcontato/key_manager_api/internal/contants"
)

// CanManageAdmins informa se o papel pode listar/criar/alterar/remover contas
// administrativas. CRUD de chaves exige apenas sessão autenticada, qualquer papel.
func CanManageAdmins(role string) bool {
	return normalize(role) == contants.RoleSuperAdmin
}

// IsProtectedTarget informa se a conta alvo é imune a mutação/remoção pela API.
// Vale para qualquer chamador, inclusive outro superadmin: é o invariante que
// protege a identidade de bootstrap, não um default.
func IsProtectedTarget(targetRole string) bool {
	return normalize(targetRole) == contants.RoleSuperAdmin
}

// IsValidRole informa se o papel é reconhecido.
func IsValidRole(role string) bool {
	switch normalize(role) {
	case contants.RoleAdmin, contants.RoleSuperAdmin:
		return true
	}
	return false
}

// DefaultRole devolve o papel normalizado, ou "admin" quando vazio.
func DefaultRole(role string) string {
	if strings.TrimSpace(role) == "" {
		return contants.RoleAdmin
	}
	return normalize(role)
}

func normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
