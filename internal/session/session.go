// Caminho: internal/session/session.go
// Resumo: Gerenciador de sessões em memória: tokens opacos criptograficamente
// aleatórios com expiração absoluta. Um restart do processo invalida tudo.

package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/lfcontato/key_manager_api/internal/contants"
	"github.com/lfcontato/key_manager_api/internal/domain"
)

// Session é o estado preso a um token: identidade e expiração absoluta.
type Session struct {
	Identity  domain.Identity
	ExpiresAt time.Time
}

// Manager guarda o mapeamento token → sessão do processo. Criado no start do
// processo e passado explicitamente aos handlers; nunca um flag global de login.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]Session

	ttl         time.Duration
	rememberTTL time.Duration

	// Now é injetável para simular relógio em testes.
	Now func() time.Time
}

// NewManager cria um gerenciador com os TTLs informados (defaults nas constantes).
func NewManager(ttl, rememberTTL time.Duration) *Manager {
	if ttl <= 0 {
		ttl = contants.SessionTTL
	}
	if rememberTTL <= 0 {
		rememberTTL = contants.SessionRememberTTL
	}
	return &Manager{
		sessions:    make(map[string]Session),
		ttl:         ttl,
		rememberTTL: rememberTTL,
		Now:         time.Now,
	}
}

// Create emite um token opaco novo para a identidade. rememberMe estende a
// expiração de 2h para 30d (valores configurados).
func (m *Manager) Create(id domain.Identity, rememberMe bool) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ttl := m.ttl
	if rememberMe {
		ttl = m.rememberTTL
	}
	m.mu.Lock()
	m.sessions[token] = Session{Identity: id, ExpiresAt: m.Now().Add(ttl)}
	m.mu.Unlock()
	return token, nil
}

// Validate devolve a identidade presa ao token. Token desconhecido falha com
// ErrUnauthenticated; expirado falha com ErrSessionExpired e remove a entrada
// (detecção preguiçosa). A expiração nunca é estendida por acesso.
func (m *Manager) Validate(token string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	if !m.Now().Before(s.ExpiresAt) {
		delete(m.sessions, token)
		return domain.Identity{}, domain.ErrSessionExpired
	}
	return s.Identity, nil
}

// Destroy remove a sessão imediatamente (logout), sem esperar a expiração.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// generateToken cria um token aleatório seguro em hex.
func generateToken() (string, error) {
	b := make([]byte, contants.SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
