// Pacote redis implementa fila, cache e status de liquidação sobre Redis.
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

// Fila usa listas Redis para levar pedidos de liquidação da API ao worker.
type Fila struct {
	client *redis.Client
	key    string
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{
		client: client,
		key:    key,
	}
}

func (f *Fila) Publicar(ctx context.Context, pedido domain.PedidoLiquidacao) error {
	payload, err := json.Marshal(pedido)
	if err != nil {
		return fmt.Errorf("redis fila: falha serializando pedido: %w", err)
	}
	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: falha ao enfileirar pedido: %w", err)
	}
	return nil
}

func (f *Fila) Consumir(ctx context.Context, handler func(context.Context, domain.PedidoLiquidacao) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// BRPOP com timeout curto para respeitar o contexto.
		res, err := f.client.BRPop(ctx, 5*time.Second, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("redis fila: falha ao consumir pedido: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var pedido domain.PedidoLiquidacao
		if err := json.Unmarshal([]byte(res[1]), &pedido); err != nil {
			return fmt.Errorf("redis fila: payload invalido: %w", err)
		}

		if err := handler(ctx, pedido); err != nil {
			return err
		}
	}
}

var _ domain.FilaLiquidacao = (*Fila)(nil)
