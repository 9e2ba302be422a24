// Caminho: internal/services/admins/service.go
// Resumo: CRUD de contas administrativas sobre o protocolo de atualização otimista.
// Senha gerada no servidor (retornada uma única vez), hash bcrypt em repouso e
// guarda rígida sobre o superadmin de bootstrap.

package adminsvc

import (
	"context"
	crand "crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lfcontato/key_manager_api/internal/contants"
	"github.com/lfcontato/key_manager_api/internal/domain"
	"github.com/lfcontato/key_manager_api/internal/policy"
	notifysvc "github.com/lfcontato/key_manager_api/internal/services/notify"
	"github.com/lfcontato/key_manager_api/internal/store"
)

// Service opera a coleção de administradores em um documento remoto.
type Service struct {
	Store  store.Contents
	Path   string
	Notify *notifysvc.Service

	Now func() time.Time
}

// New cria o serviço apontando para o documento de administradores.
func New(st store.Contents, path string, notify *notifysvc.Service) *Service {
	return &Service{Store: st, Path: path, Notify: notify, Now: time.Now}
}

// CreateInput é o payload de provisionamento de um administrador.
type CreateInput struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// CreateResult devolve a conta criada, a senha gerada (uma única vez) e o payload
// de convite a entregar fora do sistema.
type CreateResult struct {
	Account  domain.AdminAccount
	Password string
	Invite   notifysvc.Invite
}

// List devolve as contas sem o hash de senha; documento ausente vira lista vazia.
func (s *Service) List(ctx context.Context) ([]domain.AdminAccount, error) {
	accounts, err := store.List[domain.AdminAccount](ctx, s.Store, s.Path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AdminAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}
	return out, nil
}

// FindByUsername devolve a conta completa (com hash) para checagem de credenciais.
// A comparação ignora caixa: contas são gravadas em minúsculas, mas documentos
// legados podem carregar caixa mista.
func (s *Service) FindByUsername(ctx context.Context, username string) (domain.AdminAccount, error) {
	accounts, err := store.List[domain.AdminAccount](ctx, s.Store, s.Path)
	if err != nil {
		return domain.AdminAccount{}, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return domain.AdminAccount{}, domain.ErrNotFound
}

// Create provisiona uma conta nova com senha gerada no servidor. O username é
// normalizado para minúsculas, a mesma forma que o login aplica ao autenticar.
// O papel default é "admin"; provisionar outro superadmin é rejeitado — só o
// bootstrap o é.
func (s *Service) Create(ctx context.Context, in CreateInput, invitedBy string) (CreateResult, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Username == "" {
		return CreateResult{}, domain.Validation("username", "obrigatório")
	}
	if in.Phone == "" {
		return CreateResult{}, domain.Validation("phone", "obrigatório")
	}
	role := policy.DefaultRole(in.Role)
	if !policy.IsValidRole(role) {
		return CreateResult{}, domain.Validation("role", "papel desconhecido")
	}
	if role == contants.RoleSuperAdmin {
		return CreateResult{}, domain.Validation("role", "superadmin não pode ser provisionado")
	}

	password := generateNumericPassword(contants.DefaultGeneratedPasswordLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return CreateResult{}, err
	}

	account := domain.AdminAccount{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        in.Phone,
		IsActive:     true,
		CreatedAt:    s.Now().UTC(),
		InvitedBy:    invitedBy,
	}

	_, err = store.ReadModifyWrite(ctx, s.Store, s.Path, func(accounts []domain.AdminAccount) ([]domain.AdminAccount, error) {
		for _, a := range accounts {
			if strings.EqualFold(a.Username, account.Username) {
				return nil, domain.ErrConflict
			}
		}
		return append(accounts, account), nil
	}, "add admin: "+account.Username)
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Account:  account.Public(),
		Password: password,
		Invite:   s.Notify.AdminInvite(account.Username, password, account.Phone, invitedBy),
	}, nil
}

// Update aplica merge parcial sobre a conta identificada por id. Alvo superadmin
// é sempre Forbidden, independente do chamador.
func (s *Service) Update(ctx context.Context, id string, upd domain.AdminUpdate) (domain.AdminAccount, error) {
	if upd.Role != nil {
		role := policy.DefaultRole(*upd.Role)
		if !policy.IsValidRole(role) {
			return domain.AdminAccount{}, domain.Validation("role", "papel desconhecido")
		}
		if role == contants.RoleSuperAdmin {
			return domain.AdminAccount{}, domain.Validation("role", "superadmin não pode ser atribuído")
		}
		*upd.Role = role
	}
	if upd.Phone != nil && strings.TrimSpace(*upd.Phone) == "" {
		return domain.AdminAccount{}, domain.Validation("phone", "não pode ser vazio")
	}

	var updated domain.AdminAccount
	_, err := store.ReadModifyWrite(ctx, s.Store, s.Path, func(accounts []domain.AdminAccount) ([]domain.AdminAccount, error) {
		idx := -1
		for i, a := range accounts {
			if a.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		if policy.IsProtectedTarget(accounts[idx].Role) {
			return nil, domain.ErrForbidden
		}
		acc := accounts[idx]
		if upd.Phone != nil {
			acc.Phone = strings.TrimSpace(*upd.Phone)
		}
		if upd.IsActive != nil {
			acc.IsActive = *upd.IsActive
		}
		if upd.Role != nil {
			acc.Role = *upd.Role
		}
		accounts[idx] = acc
		updated = acc
		return accounts, nil
	}, "update admin: "+id)
	if err != nil {
		return domain.AdminAccount{}, err
	}
	return updated.Public(), nil
}

// Delete remove a conta identificada por id. Alvo superadmin é sempre Forbidden.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := store.ReadModifyWrite(ctx, s.Store, s.Path, func(accounts []domain.AdminAccount) ([]domain.AdminAccount, error) {
		idx := -1
		for i, a := range accounts {
			if a.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		if policy.IsProtectedTarget(accounts[idx].Role) {
			return nil, domain.ErrForbidden
		}
		return append(accounts[:idx], accounts[idx+1:]...), nil
	}, "remove admin: "+id)
	return err
}

// EnsureBootstrap garante que a conta superadmin de bootstrap exista no documento,
// com o username normalizado para minúsculas como em Create. Sem alterações
// necessárias, nenhuma escrita (nem commit) é produzida.
func (s *Service) EnsureBootstrap(ctx context.Context, username, password, phone string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return domain.Validation("bootstrap", "usuário e senha do superadmin são obrigatórios")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	boot := domain.AdminAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         contants.RoleSuperAdmin,
		Phone:        phone,
		IsActive:     true,
		CreatedAt:    s.Now().UTC(),
	}
	_, err = store.ReadModifyWrite(ctx, s.Store, s.Path, func(accounts []domain.AdminAccount) ([]domain.AdminAccount, error) {
		for _, a := range accounts {
			if strings.EqualFold(a.Username, username) {
				return nil, store.ErrUnchanged
			}
		}
		return append(accounts, boot), nil
	}, "seed bootstrap admin: "+username)
	return err
}

// generateNumericPassword cria uma senha aleatória com dígitos [0-9] de comprimento n.
func generateNumericPassword(n int) string {
	if n <= 0 {
		return ""
	}
	const digits = "0123456789"
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		r, err := crand.Int(crand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			// fallback: usa o timestamp para reduzir chance de repetição
			b[i] = digits[int(time.Now().UnixNano())%10]
			continue
		}
		b[i] = digits[r.Int64()]
	}
	return string(b)
}
