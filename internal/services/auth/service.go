// Caminho: internal/services/auth/service.go
// Resumo: Serviço de autenticação de administradores: checagem de credenciais
// contra o documento remoto e emissão/destruição de sessões em memória.

package authsvc

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/lfcontato/key_manager_api/internal/domain"
	adminsvc "github.com/lfcontato/key_manager_api/internal/services/admins"
	"github.com/lfcontato/key_manager_api/internal/session"
)

// Service agrega dependências necessárias para autenticação.
type Service struct {
	Admins   *adminsvc.Service
	Sessions *session.Manager

	// BootstrapUsername é assumido quando o login chega sem username — o painel
	// legado enviava apenas a senha do superadmin.
	BootstrapUsername string
}

// New cria uma instância do serviço de autenticação.
func New(admins *adminsvc.Service, sessions *session.Manager, bootstrapUsername string) *Service {
	return &Service{Admins: admins, Sessions: sessions, BootstrapUsername: bootstrapUsername}
}

// Login autentica por username/password e emite um token de sessão opaco.
// Conta inexistente, senha errada e conta desativada caem todas em
// ErrInvalidCredentials, sem distinguir o motivo para o chamador.
func (s *Service) Login(ctx context.Context, username, password string, rememberMe bool) (string, domain.Identity, error) {
	if username == "" {
		username = s.BootstrapUsername
	}
	account, err := s.Admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.Identity{}, domain.ErrInvalidCredentials
		}
		return "", domain.Identity{}, err
	}
	if !account.IsActive {
		return "", domain.Identity{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", domain.Identity{}, domain.ErrInvalidCredentials
	}

	id := domain.Identity{Username: account.Username, Role: account.Role}
	token, err := s.Sessions.Create(id, rememberMe)
	if err != nil {
		return "", domain.Identity{}, err
	}
	return token, id, nil
}

// Logout destrói a sessão imediatamente.
func (s *Service) Logout(token string) {
	s.Sessions.Destroy(token)
}
