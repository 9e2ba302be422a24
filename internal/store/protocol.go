// Caminho: internal/store/protocol.go
// Resumo: Protocolo de atualização otimista: ler documento + token, aplicar transform
// pura e escrever de volta com o token, sem retry em conflito.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnchanged pode ser retornado por um transform para sinalizar que o documento
// já está no estado desejado; o protocolo então devolve o conteúdo corrente sem
// produzir uma escrita (e sem um commit vazio no histórico do store).
var ErrUnchanged = errors.New("store: document unchanged")

// ReadModifyWrite executa o ciclo completo de atualização otimista sobre o
// documento em path:
//
//  1. Busca documento + token; ausência inicia de array vazio e sem token.
//  2. Aplica transform (função pura: unicidade, merges, filtragem).
//  3. Escreve o resultado com o token lido.
//
// Um ErrConflict da escrita aborta a operação inteira: o transform pode ter sido
// computado sobre dados defasados (ex.: checagem de unicidade que correu contra
// outro escritor), então repetir sem re-buscar reintroduziria a corrida. O
// chamador decide se reemite a requisição completa.
func ReadModifyWrite[T any](ctx context.Context, c Contents, path string, transform func([]T) ([]T, error), commitMessage string) ([]T, error) {
	raw, token, err := c.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	records, err := decodeAll[T](raw)
	if err != nil {
		return nil, err
	}

	out, err := transform(records)
	if err != nil {
		if errors.Is(err, ErrUnchanged) {
			return records, nil
		}
		return nil, err
	}

	if err := c.Write(ctx, path, out, token, commitMessage); err != nil {
		return nil, err
	}
	return out, nil
}

// List busca o documento pelo caminho somente-leitura e decodifica os elementos.
// Documento ausente vira coleção vazia.
func List[T any](ctx context.Context, c Contents, path string) ([]T, error) {
	raw, err := c.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](raw)
}

// decodeAll decodifica cada elemento do documento no tipo do chamador.
func decodeAll[T any](raw []json.RawMessage) ([]T, error) {
	records := make([]T, 0, len(raw))
	for _, item := range raw {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
