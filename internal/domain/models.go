// Caminho: internal/domain/models.go
// Resumo: Modelos de domínio (KeyRecord, AdminAccount, Identity) e erros centrais usados pelos serviços.

package domain

import (
	"errors"
	"time"
)

// KeyRecord representa um registro de chave de acesso armazenado no documento remoto.
// O campo DeviceID usa o nome legado "Device Id" no JSON para manter compatibilidade
// com documentos já publicados.
type KeyRecord struct {
	DeviceID  string `json:"Device Id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Expiry    string `json:"expiry"`
	Status    string `json:"status,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// KeyUpdate enumera os campos mutáveis de um KeyRecord em atualização parcial.
// Ponteiros nil significam "não alterar"; campos desconhecidos são rejeitados no decode.
type KeyUpdate struct {
	Password *string `json:"password"`
	Expiry   *string `json:"expiry"`
	DeviceID *string `json:"deviceId"`
	Status   *string `json:"status"`
}

// AdminAccount representa uma conta administrativa persistida no documento remoto.
// O hash de senha nunca é serializado em respostas da API.
type AdminAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	InvitedBy    string    `json:"invitedBy,omitempty"`
}

// Public devolve uma cópia da conta sem o hash de senha, própria para respostas.
func (a AdminAccount) Public() AdminAccount {
	a.PasswordHash = ""
	return a
}

// AdminUpdate enumera os campos mutáveis de um AdminAccount em atualização parcial.
type AdminUpdate struct {
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
	Role     *string `json:"role"`
}

// Identity é o retrato mínimo do administrador preso a uma sessão.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Erros comuns de domínio.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
)

// ValidationError sinaliza entrada ausente ou malformada detectada antes de
// qualquer chamada remota.
type ValidationError struct {
	Field  string
	Reason string
}

// Error devolve a representação textual do erro de validação.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Validation cria um ValidationError para o campo informado.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation informa se err é (ou embrulha) um ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
