// Pacote pricing calcula duplos, triplos, combinações e custo de uma aposta.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/marcelojr/quiniela/internal/domain"
)

const (
	PrecoBasePadrao = 100.0
	MaxTriplos      = 3
	MaxDuplos       = 4
)

var (
	ErrLimiteTriplos     = fmt.Errorf("limite de %d triplos excedido", MaxTriplos)
	ErrLimiteDuplos      = fmt.Errorf("limite de %d duplos excedido", MaxDuplos)
	ErrResultadoInvalido = errors.New("resultado invalido")
)

// Cotacao é o resumo de preço de um conjunto de palpites.
type Cotacao struct {
	Duplos      int     `json:"duplos"`
	Triplos     int     `json:"triplos"`
	Combinacoes float64 `json:"combinacoes"`
	CustoTotal  float64 `json:"custo_total"`
	PrecoBase   float64 `json:"preco_base"`
}

// Calcular não valida limites: partidas com um resultado contribuem com fator 1.
// Combinações ficam em float64 para não estourar com muitos duplos e triplos.
func Calcular(palpites domain.Palpites, precoBase float64) Cotacao {
	if precoBase <= 0 {
		precoBase = PrecoBasePadrao
	}

	c := Cotacao{PrecoBase: precoBase}
	for _, selecao := range palpites {
		switch len(selecao) {
		case 2:
			c.Duplos++
		case 3:
			c.Triplos++
		}
	}
	c.Combinacoes = math.Pow(2, float64(c.Duplos)) * math.Pow(3, float64(c.Triplos))
	c.CustoTotal = c.Combinacoes * precoBase
	return c
}

func ValidarLimites(c Cotacao) error {
	if c.Triplos > MaxTriplos {
		return ErrLimiteTriplos
	}
	if c.Duplos > MaxDuplos {
		return ErrLimiteDuplos
	}
	return nil
}

// AlternarSelecao liga/desliga um resultado na partida e só confirma a troca se a
// cotação resultante respeitar os limites. Em caso de erro o mapa original segue intacto.
func AlternarSelecao(palpites domain.Palpites, partida domain.PartidaID, resultado domain.Resultado, precoBase float64) (domain.Palpites, Cotacao, error) {
	if !resultado.Valido() {
		return palpites, Calcular(palpites, precoBase), fmt.Errorf("%w: %q", ErrResultadoInvalido, resultado)
	}

	proximo := palpites.Copia()
	atual := proximo[partida]

	if atual.Contem(resultado) {
		restante := make(domain.Selecao, 0, len(atual))
		for _, r := range atual {
			if r != resultado {
				restante = append(restante, r)
			}
		}
		if len(restante) == 0 {
			delete(proximo, partida)
		} else {
			proximo[partida] = restante
		}
	} else {
		proximo[partida] = append(atual, resultado)
	}

	cotacao := Calcular(proximo, precoBase)
	if err := ValidarLimites(cotacao); err != nil {
		return palpites, Calcular(palpites, precoBase), err
	}
	return proximo, cotacao, nil
}
