package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/quiniela/internal/domain"
)

// StatusLiquidacaoStore mantém o último desfecho de liquidação por quiniela.
type StatusLiquidacaoStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStatusLiquidacaoStore(client *redis.Client, prefix string, ttl time.Duration) *StatusLiquidacaoStore {
	if prefix == "" {
		prefix = "liquidacao:status"
	}
	return &StatusLiquidacaoStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *StatusLiquidacaoStore) Salvar(ctx context.Context, status domain.StatusLiquidacao) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("redis status: serializar: %w", err)
	}
	// ttl zero mantém a chave sem expiração.
	if err := s.client.Set(ctx, s.key(status.QuinielaID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis status: salvar: %w", err)
	}
	return nil
}

func (s *StatusLiquidacaoStore) Obter(ctx context.Context, quinielaID domain.QuinielaID) (domain.StatusLiquidacao, error) {
	raw, err := s.client.Get(ctx, s.key(quinielaID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.StatusLiquidacao{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StatusLiquidacao{}, fmt.Errorf("redis status: obter: %w", err)
	}

	var status domain.StatusLiquidacao
	if err := json.Unmarshal(raw, &status); err != nil {
		return domain.StatusLiquidacao{}, fmt.Errorf("redis status: payload invalido: %w", err)
	}
	return status, nil
}

func (s *StatusLiquidacaoStore) key(id domain.QuinielaID) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

var _ domain.StatusLiquidacaoStore = (*StatusLiquidacaoStore)(nil)
