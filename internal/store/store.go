// Caminho: internal/store/store.go
// Resumo: Contrato do armazenamento remoto de documentos JSON versionados e erros da camada de store.

package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Erros da camada de store. Os handlers mapeiam ErrConflict para 409 e tratam
// ErrTransient como falha opaca (500 com detalhe apenas em log).
var (
	// ErrTransient indica falha de rede/timeout ou indisponibilidade do store.
	ErrTransient = errors.New("store: transient fetch error")
	// ErrConflict indica token de versão defasado: outro escritor venceu esta geração.
	ErrConflict = errors.New("store: stale version token")
	// ErrParse indica documento que não é JSON válido nem array nem objeto único.
	ErrParse = errors.New("store: malformed document")
)

// Contents abstrai o repositório remoto de conteúdo: buscar um documento nomeado
// e substituí-lo mediante o último token de versão conhecido.
type Contents interface {
	// Fetch retorna os elementos do documento e o token de versão exigido para a
	// próxima escrita. Documento inexistente retorna (nil, "", nil) — estado
	// válido que representa coleção vazia, distinto de qualquer falha.
	Fetch(ctx context.Context, path string) (items []json.RawMessage, versionToken string, err error)

	// Read retorna apenas o conteúdo, para caminhos somente-leitura. Implementações
	// podem usar uma cadeia de estratégias de busca sem garantir token de versão.
	Read(ctx context.Context, path string) ([]json.RawMessage, error)

	// Write substitui o documento pelo conteúdo informado. previousToken vazio
	// significa criação (o store exige omitir o token apenas nesse caso). Token
	// defasado falha com ErrConflict, nunca com retry silencioso. Toda escrita
	// bem-sucedida é atribuída a uma mensagem de commit legível.
	Write(ctx context.Context, path string, content any, previousToken, commitMessage string) error
}

// parseDocument interpreta o corpo de um documento como array JSON. Um objeto
// único é embrulhado em array de um elemento para tolerar o formato legado.
func parseDocument(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		return []json.RawMessage{json.RawMessage(data)}, nil
	}
	return nil, ErrParse
}
