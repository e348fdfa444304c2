// Pacote ids gera identificadores ULID para quinielas, partidas e apostas.
package ids

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator é seguro para uso concorrente; ids do mesmo milissegundo saem ordenados.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	agora   func() time.Time
}

func NewGenerator() *Generator {
	return NewGeneratorWithClock(func() time.Time { return time.Now().UTC() })
}

func NewGeneratorWithClock(agora func() time.Time) *Generator {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Generator{
		entropy: ulid.Monotonic(src, 0),
		agora:   agora,
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.agora()), g.entropy).String()
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

func DefaultGenerator() *Generator {
	defaultOnce.Do(func() {
		defaultGen = NewGenerator()
	})
	return defaultGen
}

// NewULID usa o gerador padrão do pacote.
func NewULID() string {
	return DefaultGenerator().New()
}

// Valido diz se s é um ULID canônico (26 caracteres Crockford base32).
func Valido(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

