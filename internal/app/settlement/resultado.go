package settlement

import (
	"strconv"
	"strings"

	"github.com/marcelojr/quiniela/internal/domain"
)

// statusFinalizados aceita tanto os códigos curtos do provedor quanto os textos longos.
var statusFinalizados = map[string]struct{}{
	"ft":                              {},
	"aet":                             {},
	"pen":                             {},
	"match finished":                  {},
	"match finished after extra time": {},
	"match finished after penalty":    {},
	"finished":                        {},
	"after extra time":                {},
	"after penalties":                 {},
}

func StatusFinalizado(status string) bool {
	_, ok := statusFinalizados[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// DerivarResultado devolve nil enquanto a partida não terminou ou se algum placar não for numérico.
func DerivarResultado(status, golsCasa, golsFora string) *domain.Resultado {
	if !StatusFinalizado(status) {
		return nil
	}

	casa, err := strconv.Atoi(strings.TrimSpace(golsCasa))
	if err != nil {
		return nil
	}
	fora, err := strconv.Atoi(strings.TrimSpace(golsFora))
	if err != nil {
		return nil
	}

	var r domain.Resultado
	switch {
	case casa > fora:
		r = domain.ResultadoCasa
	case fora > casa:
		r = domain.ResultadoFora
	default:
		r = domain.ResultadoEmpate
	}
	return &r
}

// Pontuar soma um ponto por partida cujo resultado oficial está na seleção da aposta.
func Pontuar(palpites domain.Palpites, oficiais map[domain.PartidaID]domain.Resultado) int {
	pontos := 0
	for partida, oficial := range oficiais {
		if palpites[partida].Contem(oficial) {
			pontos++
		}
	}
	return pontos
}
