// Caminho: internal/store/protocol_test.go
// Resumo: Testes do protocolo read-modify-write sobre o store em memória,
// incluindo bootstrap de documento ausente e conflito com escritor concorrente.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	Name string `json:"name"`
}

func TestReadModifyWriteBootstrapsMissingDocument(t *testing.T) {
	m := NewMemStore()
	out, err := ReadModifyWrite(context.Background(), m, "doc.json", func(rs []rec) ([]rec, error) {
		require.Empty(t, rs)
		return append(rs, rec{Name: "primeiro"}), nil
	}, "create doc")
	require.NoError(t, err)
	require.Len(t, out, 1)

	items, token, err := m.Fetch(context.Background(), "doc.json")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, items, 1)
	assert.Equal(t, []string{"create doc"}, m.Commits)
}

func TestReadModifyWriteTransformErrorAbortsBeforeWrite(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Seed("doc.json", []rec{{Name: "a"}}))
	before := m.Token("doc.json")

	boom := errors.New("boom")
	_, err := ReadModifyWrite(context.Background(), m, "doc.json", func(rs []rec) ([]rec, error) {
		return nil, boom
	}, "never written")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, m.Token("doc.json"))
	assert.Empty(t, m.Commits)
}

func TestReadModifyWriteUnchangedSkipsWrite(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Seed("doc.json", []rec{{Name: "a"}}))
	before := m.Token("doc.json")

	out, err := ReadModifyWrite(context.Background(), m, "doc.json", func(rs []rec) ([]rec, error) {
		return nil, ErrUnchanged
	}, "no commit expected")
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, before, m.Token("doc.json"))
	assert.Empty(t, m.Commits)
}

// raceContents injeta uma escrita concorrente entre o Fetch e o Write do
// protocolo, tornando defasado o token entregue ao chamador.
type raceContents struct {
	*MemStore
	raced bool
}

func (r *raceContents) Fetch(ctx context.Context, path string) ([]json.RawMessage, string, error) {
	items, token, err := r.MemStore.Fetch(ctx, path)
	if err != nil || r.raced {
		return items, token, err
	}
	r.raced = true
	// Escritor concorrente vence esta geração do documento.
	if werr := r.MemStore.Write(ctx, path, []rec{{Name: "vencedor"}}, token, "concurrent write"); werr != nil {
		return nil, "", werr
	}
	return items, token, nil
}

func TestReadModifyWriteConflictSurfacesAndLoserChangesNothing(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Seed("doc.json", []rec{{Name: "base"}}))
	rc := &raceContents{MemStore: m}

	_, err := ReadModifyWrite[rec](context.Background(), rc, "doc.json", func(rs []rec) ([]rec, error) {
		return append(rs, rec{Name: "perdedor"}), nil
	}, "losing write")
	require.ErrorIs(t, err, ErrConflict)

	// O documento reflete apenas o resultado do escritor vencedor.
	final, err := List[rec](context.Background(), m, "doc.json")
	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, "vencedor", final[0].Name)
}

func TestMemStoreCreateOverExistingIsConflict(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Seed("doc.json", []rec{}))
	err := m.Write(context.Background(), "doc.json", []rec{{Name: "x"}}, "", "blind create")
	require.ErrorIs(t, err, ErrConflict)
}
