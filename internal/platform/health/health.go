// Pacote health expõe as sondas de liveness e readiness da API e do worker.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	estadoOK           = "ok"
	estadoIndisponivel = "indisponivel"
)

// Relatorio é o corpo devolvido por /readyz.
type Relatorio struct {
	Status       string            `json:"status"`
	Dependencias map[string]string `json:"dependencias"`
}

type Checker struct {
	db      *sql.DB
	redis   *redis.Client
	timeout time.Duration
}

func NewChecker(db *sql.DB, redis *redis.Client) *Checker {
	return &Checker{db: db, redis: redis, timeout: 2 * time.Second}
}

// Verificar pinga cada dependência configurada; nil significa dependência ausente.
func (c *Checker) Verificar(ctx context.Context) Relatorio {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rel := Relatorio{Status: estadoOK, Dependencias: map[string]string{}}

	if c.db != nil {
		rel.Dependencias["postgres"] = estadoOK
		if err := c.db.PingContext(ctx); err != nil {
			rel.Dependencias["postgres"] = estadoIndisponivel
			rel.Status = estadoIndisponivel
		}
	}

	if c.redis != nil {
		rel.Dependencias["redis"] = estadoOK
		if err := c.redis.Ping(ctx).Err(); err != nil {
			rel.Dependencias["redis"] = estadoIndisponivel
			rel.Status = estadoIndisponivel
		}
	}

	return rel
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := c.Verificar(r.Context())

		status := http.StatusOK
		if rel.Status != estadoOK {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(rel)
	}
}

// LiveHandler só indica que o processo responde.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(estadoOK))
	}
}
