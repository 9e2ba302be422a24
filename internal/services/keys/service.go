// Caminho: internal/services/keys/service.go
// Resumo: CRUD de registros de chave sobre o protocolo de atualização otimista.
// Unicidade de username checada dentro do mesmo transform da escrita.

package keysvc

import (
	"context"
	"strings"
	"time"

	"github.com/lfcontato/key_manager_api/internal/contants"
	"github.com/lfcontato/key_manager_api/internal/domain"
	"github.com/lfcontato/key_manager_api/internal/store"
)

// Service opera a coleção de chaves em um documento remoto.
type Service struct {
	Store store.Contents
	Path  string

	// Now é injetável para carimbos de auditoria determinísticos em teste.
	Now func() time.Time
}

// New cria o serviço apontando para o documento de chaves.
func New(st store.Contents, path string) *Service {
	return &Service{Store: st, Path: path, Now: time.Now}
}

// List devolve a coleção como está no store; documento ausente vira lista vazia.
func (s *Service) List(ctx context.Context) ([]domain.KeyRecord, error) {
	keys, err := store.List[domain.KeyRecord](ctx, s.Store, s.Path)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []domain.KeyRecord{}
	}
	return keys, nil
}

// Create valida e acrescenta um registro novo. Username duplicado falha com
// ErrConflict verificado sobre o array recém-buscado, dentro do transform —
// estreita (não elimina) a janela de corrida com outro escritor.
func (s *Service) Create(ctx context.Context, candidate domain.KeyRecord, actor string) (domain.KeyRecord, error) {
	candidate.Username = strings.TrimSpace(candidate.Username)
	if candidate.Username == "" {
		return domain.KeyRecord{}, domain.Validation("username", "obrigatório")
	}
	if len(candidate.Username) < contants.MinKeyUsernameLength {
		return domain.KeyRecord{}, domain.Validation("username", "mínimo de 3 caracteres")
	}
	if candidate.Password == "" {
		return domain.KeyRecord{}, domain.Validation("password", "obrigatório")
	}
	if candidate.Status != "" && !validStatus(candidate.Status) {
		return domain.KeyRecord{}, domain.Validation("status", "deve ser active ou inactive")
	}

	now := s.Now().UTC().Format(time.RFC3339)
	candidate.CreatedBy = actor
	candidate.CreatedAt = now
	// Campos de auditoria de update nunca vêm do cliente na criação.
	candidate.UpdatedBy = ""
	candidate.UpdatedAt = ""

	_, err := store.ReadModifyWrite(ctx, s.Store, s.Path, func(keys []domain.KeyRecord) ([]domain.KeyRecord, error) {
		for _, k := range keys {
			if k.Username == candidate.Username {
				return nil, domain.ErrConflict
			}
		}
		return append(keys, candidate), nil
	}, "add key: "+candidate.Username)
	if err != nil {
		return domain.KeyRecord{}, err
	}
	return candidate, nil
}

// Update aplica merge parcial sobre o registro identificado por username: campos
// nil do payload ficam intocados. Carimba updatedBy/updatedAt.
func (s *Service) Update(ctx context.Context, username string, upd domain.KeyUpdate, actor string) (domain.KeyRecord, error) {
	if upd.Status != nil && *upd.Status != "" && !validStatus(*upd.Status) {
		return domain.KeyRecord{}, domain.Validation("status", "deve ser active ou inactive")
	}
	if upd.Password != nil && *upd.Password == "" {
		return domain.KeyRecord{}, domain.Validation("password", "não pode ser vazio")
	}

	var updated domain.KeyRecord
	_, err := store.ReadModifyWrite(ctx, s.Store, s.Path, func(keys []domain.KeyRecord) ([]domain.KeyRecord, error) {
		idx := -1
		for i, k := range keys {
			if k.Username == username {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		rec := keys[idx]
		if upd.Password != nil {
			rec.Password = *upd.Password
		}
		if upd.Expiry != nil {
			rec.Expiry = *upd.Expiry
		}
		if upd.DeviceID != nil {
			rec.DeviceID = *upd.DeviceID
		}
		if upd.Status != nil {
			rec.Status = *upd.Status
		}
		rec.UpdatedBy = actor
		rec.UpdatedAt = s.Now().UTC().Format(time.RFC3339)
		keys[idx] = rec
		updated = rec
		return keys, nil
	}, "update key: "+username)
	if err != nil {
		return domain.KeyRecord{}, err
	}
	return updated, nil
}

// Delete remove exatamente o registro identificado por username.
func (s *Service) Delete(ctx context.Context, username string) error {
	_, err := store.ReadModifyWrite(ctx, s.Store, s.Path, func(keys []domain.KeyRecord) ([]domain.KeyRecord, error) {
		out := keys[:0]
		found := false
		for _, k := range keys {
			if k.Username == username {
				found = true
				continue
			}
			out = append(out, k)
		}
		if !found {
			return nil, domain.ErrNotFound
		}
		return out, nil
	}, "remove key: "+username)
	return err
}

// validStatus reconhece o enum de status de chave.
func validStatus(st string) bool {
	return st == contants.KeyStatusActive || st == contants.KeyStatusInactive
}
