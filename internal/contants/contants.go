// Caminho: internal/contants/contants.go
// Resumo: Constantes globais do sistema.

package contants

import "time"

// Comprimento padrão para senha gerada automaticamente de administradores (em dígitos numéricos).
const DefaultGeneratedPasswordLength = 8

// Comprimento mínimo de username em registros de chave.
const MinKeyUsernameLength = 3

// Tamanho do token de sessão em bytes (64 caracteres em hex).
const SessionTokenBytes = 32

// TTL padrão de sessão sem "lembrar de mim".
const SessionTTL = 2 * time.Hour

// TTL de sessão com "lembrar de mim" marcado.
const SessionRememberTTL = 30 * 24 * time.Hour

// Papéis de administrador reconhecidos pelo sistema.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Status possíveis de um registro de chave.
const (
	KeyStatusActive   = "active"
	KeyStatusInactive = "inactive"
)
