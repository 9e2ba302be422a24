// Caminho: internal/session/session_test.go
// Resumo: Testes do ciclo de vida de sessões com relógio simulado.

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfcontato/key_manager_api/internal/domain"
)

func managerAt(start time.Time) (*Manager, *time.Time) {
	now := start
	m := NewManager(0, 0)
	m.Now = func() time.Time { return now }
	return m, &now
}

func TestValidateReturnsIdentity(t *testing.T) {
	m, _ := managerAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	token, err := m.Create(domain.Identity{Username: "superadmin", Role: "superadmin"}, false)
	require.NoError(t, err)
	require.Len(t, token, 64)

	id, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "superadmin", id.Username)
	assert.Equal(t, "superadmin", id.Role)
}

func TestUnknownTokenIsUnauthenticated(t *testing.T) {
	m, _ := managerAt(time.Now())
	_, err := m.Validate("deadbeef")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSessionExpiresAfterTwoHours(t *testing.T) {
	m, now := managerAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	token, err := m.Create(domain.Identity{Username: "op", Role: "admin"}, false)
	require.NoError(t, err)

	*now = now.Add(2*time.Hour - time.Second)
	_, err = m.Validate(token)
	require.NoError(t, err)

	*now = now.Add(2 * time.Second)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	// Entrada evicta: próximo acesso é token desconhecido, não expirado.
	_, err = m.Validate(token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRememberMeLastsThirtyDays(t *testing.T) {
	m, now := managerAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	token, err := m.Create(domain.Identity{Username: "op", Role: "admin"}, true)
	require.NoError(t, err)

	*now = now.Add(2 * time.Hour)
	_, err = m.Validate(token)
	require.NoError(t, err, "rememberMe deve seguir válido na marca de 2h")

	*now = now.Add(31 * 24 * time.Hour)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestValidateDoesNotSlideExpiry(t *testing.T) {
	m, now := managerAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	token, err := m.Create(domain.Identity{Username: "op", Role: "admin"}, false)
	require.NoError(t, err)

	// Acessos repetidos não estendem a expiração absoluta.
	for i := 0; i < 3; i++ {
		*now = now.Add(30 * time.Minute)
		_, err = m.Validate(token)
		require.NoError(t, err)
	}
	*now = now.Add(45 * time.Minute)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestDestroyCollapsesActiveToAbsent(t *testing.T) {
	m, _ := managerAt(time.Now())
	token, err := m.Create(domain.Identity{Username: "op", Role: "admin"}, false)
	require.NoError(t, err)

	m.Destroy(token)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestTokensAreUnique(t *testing.T) {
	m, _ := managerAt(time.Now())
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := m.Create(domain.Identity{Username: "op", Role: "admin"}, false)
		require.NoError(t, err)
		require.False(t, seen[token])
		seen[token] = true
	}
}
