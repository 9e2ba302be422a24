// Caminho: internal/services/admins/service_test.go
// Resumo: Testes do CRUD de contas administrativas: senha gerada uma única vez,
// convite, bootstrap idempotente e a guarda rígida sobre o superadmin.

package adminsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lfcontato/key_manager_api/internal/domain"
	notifysvc "github.com/lfcontato/key_manager_api/internal/services/notify"
	"github.com/lfcontato/key_manager_api/internal/store"
)

func newService() (*Service, *store.MemStore) {
	m := store.NewMemStore()
	s := New(m, "admins.json", notifysvc.New("key_manager_api", "https://panel.example.com"))
	s.Now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return s, m
}

func TestCreateGeneratesPasswordAndInvite(t *testing.T) {
	s, _ := newService()
	res, err := s.Create(context.Background(), CreateInput{Username: "operator", Phone: "+55 11 98765-4321"}, "superadmin")
	require.NoError(t, err)

	assert.Len(t, res.Password, 8)
	assert.NotEmpty(t, res.Account.ID)
	assert.Equal(t, "admin", res.Account.Role)
	assert.True(t, res.Account.IsActive)
	assert.Equal(t, "superadmin", res.Account.InvitedBy)
	assert.Empty(t, res.Account.PasswordHash, "hash nunca sai na resposta")
	assert.Contains(t, res.Invite.WhatsAppLink, "https://wa.me/5511987654321?text=")
	assert.Contains(t, res.Invite.Message, res.Password)

	// O hash armazenado corresponde à senha retornada uma única vez.
	stored, err := s.FindByUsername(context.Background(), "operator")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(res.Password)))

	// A listagem nunca expõe o hash.
	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].PasswordHash)
}

func TestCreateRejectsSuperadminRole(t *testing.T) {
	s, _ := newService()
	_, err := s.Create(context.Background(), CreateInput{Username: "x", Phone: "1", Role: "superadmin"}, "superadmin")
	assert.True(t, domain.IsValidation(err))
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	s, _ := newService()
	_, err := s.Create(context.Background(), CreateInput{Phone: "1"}, "superadmin")
	assert.True(t, domain.IsValidation(err))
	_, err = s.Create(context.Background(), CreateInput{Username: "x"}, "superadmin")
	assert.True(t, domain.IsValidation(err))
}

func TestUsernamesAreNormalizedToLowercase(t *testing.T) {
	s, _ := newService()
	res, err := s.Create(context.Background(), CreateInput{Username: "Operator", Phone: "1"}, "superadmin")
	require.NoError(t, err)
	assert.Equal(t, "operator", res.Account.Username)

	// A busca ignora caixa, então o login encontra a conta como quer que o
	// username tenha sido digitado.
	stored, err := s.FindByUsername(context.Background(), "OPERATOR")
	require.NoError(t, err)
	assert.Equal(t, "operator", stored.Username)

	// Unicidade também ignora caixa.
	_, err = s.Create(context.Background(), CreateInput{Username: "OPERATOR", Phone: "2"}, "superadmin")
	require.ErrorIs(t, err, domain.ErrConflict)

	// Bootstrap com caixa mista grava e reencontra em minúsculas.
	require.NoError(t, s.EnsureBootstrap(context.Background(), "SuperAdmin", "boot-pass", ""))
	boot, err := s.FindByUsername(context.Background(), "superadmin")
	require.NoError(t, err)
	assert.Equal(t, "superadmin", boot.Username)
	require.NoError(t, s.EnsureBootstrap(context.Background(), "SUPERADMIN", "boot-pass", ""), "re-seed é no-op")
}

func TestCreateDuplicateUsername(t *testing.T) {
	s, _ := newService()
	_, err := s.Create(context.Background(), CreateInput{Username: "operator", Phone: "1"}, "superadmin")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), CreateInput{Username: "operator", Phone: "2"}, "superadmin")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateAndDeleteSuperadminAlwaysForbidden(t *testing.T) {
	s, _ := newService()
	require.NoError(t, s.EnsureBootstrap(context.Background(), "superadmin", "boot-pass", "+550000000000"))
	boot, err := s.FindByUsername(context.Background(), "superadmin")
	require.NoError(t, err)

	active := false
	_, err = s.Update(context.Background(), boot.ID, domain.AdminUpdate{IsActive: &active})
	require.ErrorIs(t, err, domain.ErrForbidden)

	err = s.Delete(context.Background(), boot.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Conta intacta após as tentativas.
	after, err := s.FindByUsername(context.Background(), "superadmin")
	require.NoError(t, err)
	assert.True(t, after.IsActive)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	s, _ := newService()
	res, err := s.Create(context.Background(), CreateInput{Username: "operator", Phone: "111"}, "superadmin")
	require.NoError(t, err)

	active := false
	updated, err := s.Update(context.Background(), res.Account.ID, domain.AdminUpdate{IsActive: &active})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "111", updated.Phone, "phone intocado")

	_, err = s.Update(context.Background(), "id-inexistente", domain.AdminUpdate{IsActive: &active})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRejectsSuperadminRoleAssignment(t *testing.T) {
	s, _ := newService()
	res, err := s.Create(context.Background(), CreateInput{Username: "operator", Phone: "111"}, "superadmin")
	require.NoError(t, err)

	role := "superadmin"
	_, err = s.Update(context.Background(), res.Account.ID, domain.AdminUpdate{Role: &role})
	assert.True(t, domain.IsValidation(err))
}

func TestEnsureBootstrapIsIdempotent(t *testing.T) {
	s, m := newService()
	require.NoError(t, s.EnsureBootstrap(context.Background(), "superadmin", "boot-pass", ""))
	require.Len(t, m.Commits, 1)

	// Segunda chamada não produz escrita nem commit vazio.
	require.NoError(t, s.EnsureBootstrap(context.Background(), "superadmin", "boot-pass", ""))
	require.Len(t, m.Commits, 1)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "superadmin", list[0].Role)
}

func TestDeleteRegularAdmin(t *testing.T) {
	s, _ := newService()
	res, err := s.Create(context.Background(), CreateInput{Username: "operator", Phone: "1"}, "superadmin")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), res.Account.ID))
	_, err = s.FindByUsername(context.Background(), "operator")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Delete(context.Background(), res.Account.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
