package httpapi

import (
	"errors"
	"net/http"

	"github.com/marcelojr/quiniela/internal/app/pricing"
	"github.com/marcelojr/quiniela/internal/app/quinielas"
	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/antifraude"
)

// Erro é o corpo padrão das respostas de falha.
type Erro struct {
	Titulo    string `json:"titulo"`
	Descricao string `json:"descricao"`
	Codigo    string `json:"codigo"`
}

type regraErro struct {
	alvo   error
	status int
	codigo string
	titulo string
}

// A ordem importa: erros específicos antes das categorias genéricas que eles embrulham.
var regrasErro = []regraErro{
	{ErrPayloadInvalido, http.StatusBadRequest, "payload-invalido", "Requisição inválida"},
	{domain.ErrTravada, http.StatusConflict, "travada", "Quiniela em processamento"},
	{antifraude.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate-limited", "Muitas tentativas"},
	{quinielas.ErrPrazoEncerrado, http.StatusConflict, "prazo-encerrado", "Prazo encerrado"},
	{quinielas.ErrQuinielaFechada, http.StatusConflict, "quiniela-fechada", "Quiniela fechada"},
	{quinielas.ErrLotada, http.StatusConflict, "lotada", "Quiniela lotada"},
	{quinielas.ErrPalpitesIncompletos, http.StatusUnprocessableEntity, "validacao", "Palpites incompletos"},
	{quinielas.ErrPalpiteInvalido, http.StatusUnprocessableEntity, "validacao", "Palpite inválido"},
	{quinielas.ErrQuinielaInvalida, http.StatusUnprocessableEntity, "validacao", "Quiniela inválida"},
	{pricing.ErrLimiteTriplos, http.StatusUnprocessableEntity, "validacao", "Limite de triplos"},
	{pricing.ErrLimiteDuplos, http.StatusUnprocessableEntity, "validacao", "Limite de duplos"},
	{pricing.ErrResultadoInvalido, http.StatusUnprocessableEntity, "validacao", "Resultado inválido"},
	{settlement.ErrPartidaDesconhecida, http.StatusUnprocessableEntity, "validacao", "Partida desconhecida"},
	{domain.ErrPermissionDenied, http.StatusForbidden, "permission-denied", "Acesso negado"},
	{domain.ErrAlreadyExists, http.StatusConflict, "already-exists", "Registro já existe"},
	{domain.ErrNotFound, http.StatusNotFound, "not-found", "Não encontrado"},
	{domain.ErrFailedPrecondition, http.StatusPreconditionFailed, "failed-precondition", "Operação não permitida"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "unavailable", "Serviço indisponível"},
}

func classificarErro(err error) (int, Erro) {
	for _, regra := range regrasErro {
		if errors.Is(err, regra.alvo) {
			return regra.status, Erro{Titulo: regra.titulo, Descricao: err.Error(), Codigo: regra.codigo}
		}
	}
	// Erros internos não vazam detalhes para o cliente.
	return http.StatusInternalServerError, Erro{
		Titulo:    "Erro inesperado",
		Descricao: "Não foi possível concluir a operação. Tente novamente.",
		Codigo:    "interno",
	}
}

func responderErro(w http.ResponseWriter, err error) {
	status, corpo := classificarErro(err)
	responderJSON(w, status, corpo)
}
