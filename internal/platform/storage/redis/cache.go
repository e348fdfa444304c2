package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/quiniela/internal/domain"
)

// Cache guarda respostas brutas do provedor de partidas com expiração.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache) Obter(ctx context.Context, chave string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(chave)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache: obter: %w", err)
	}
	return val, true, nil
}

// Guardar sem TTL positivo não grava nada; cache desligado.
func (c *Cache) Guardar(ctx context.Context, chave string, valor []byte) error {
	if c.ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.key(chave), valor, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: guardar: %w", err)
	}
	return nil
}

func (c *Cache) key(chave string) string {
	if c.prefix == "" {
		return chave
	}
	return fmt.Sprintf("%s:%s", c.prefix, chave)
}

var _ domain.CacheRespostas = (*Cache)(nil)
