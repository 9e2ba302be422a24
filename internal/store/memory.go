// Caminho: internal/store/memory.go
// Resumo: Implementação de Contents em memória com semântica de token idêntica ao
// store remoto. Usada em desenvolvimento (devseed sem credenciais) e em testes.

package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore guarda documentos em memória, um "sha" por revisão.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]memDoc

	// Commits acumula as mensagens de commit aceitas, na ordem, para inspeção.
	Commits []string
}

type memDoc struct {
	data []byte
	sha  string
}

// NewMemStore cria um store vazio.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]memDoc)}
}

// Fetch devolve o documento e o sha corrente; ausente retorna (nil, "", nil).
func (m *MemStore) Fetch(_ context.Context, path string) ([]json.RawMessage, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		return nil, "", nil
	}
	items, err := parseDocument(doc.data)
	if err != nil {
		return nil, "", err
	}
	return items, doc.sha, nil
}

// Read equivale a Fetch sem o token.
func (m *MemStore) Read(ctx context.Context, path string) ([]json.RawMessage, error) {
	items, _, err := m.Fetch(ctx, path)
	return items, err
}

// Write aplica a mesma regra do store remoto: criação exige token vazio e
// atualização exige o sha corrente; qualquer divergência é ErrConflict.
func (m *MemStore) Write(_ context.Context, path string, content any, previousToken, commitMessage string) error {
	payload, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, exists := m.docs[path]
	if !exists && previousToken != "" {
		return fmt.Errorf("%w: document does not exist", ErrConflict)
	}
	if exists && previousToken != doc.sha {
		return fmt.Errorf("%w: token %q, current %q", ErrConflict, previousToken, doc.sha)
	}

	sum := sha1.Sum(payload)
	m.docs[path] = memDoc{data: payload, sha: hex.EncodeToString(sum[:])}
	m.Commits = append(m.Commits, commitMessage)
	return nil
}

// Seed grava um documento diretamente, ignorando a checagem de token. Só para
// preparar cenários de teste/desenvolvimento.
func (m *MemStore) Seed(path string, content any) error {
	payload, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := sha1.Sum(payload)
	m.docs[path] = memDoc{data: payload, sha: hex.EncodeToString(sum[:])}
	return nil
}

// Token devolve o sha corrente de um documento ("" se ausente).
func (m *MemStore) Token(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[path].sha
}
