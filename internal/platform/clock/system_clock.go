package clock

import (
	"time"

	"github.com/marcelojr/quiniela/internal/domain"
)

// SystemClock devolve sempre UTC; prazos de quiniela são comparados nesse fuso.
type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Agora() time.Time {
	return time.Now().UTC()
}

var _ domain.Clock = SystemClock{}
