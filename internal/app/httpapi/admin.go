package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/domain"
)

type quinielaRequest struct {
	Titulo           string                `json:"titulo"`
	Descricao        string                `json:"descricao"`
	Tipo             domain.TipoQuiniela   `json:"tipo"`
	PrecoBase        float64               `json:"preco_base"`
	Premio           float64               `json:"premio"`
	FechaEm          time.Time             `json:"fecha_em"`
	MaxParticipantes int                   `json:"max_participantes"`
	Status           domain.StatusQuiniela `json:"status"`
	Temporada        string                `json:"temporada"`
	MultiCompeticao  bool                  `json:"multi_competicao"`
	Partidas         []domain.Partida      `json:"partidas"`
}

func (req quinielaRequest) toDomain() domain.Quiniela {
	return domain.Quiniela{
		Titulo:           strings.TrimSpace(req.Titulo),
		Descricao:        req.Descricao,
		Tipo:             req.Tipo,
		PrecoBase:        req.PrecoBase,
		Premio:           req.Premio,
		FechaEm:          req.FechaEm,
		MaxParticipantes: req.MaxParticipantes,
		Status:           req.Status,
		Temporada:        req.Temporada,
		MultiCompeticao:  req.MultiCompeticao,
	}
}

type liquidarRequest struct {
	Placares map[domain.PartidaID]domain.Placar `json:"placares"`
}

// liquidacaoResponse leva o relatório e a notificação exibida ao operador.
type liquidacaoResponse struct {
	Titulo    string                `json:"titulo"`
	Descricao string                `json:"descricao"`
	Relatorio *settlement.Relatorio `json:"relatorio,omitempty"`
}

func (a *API) adminListarQuinielas(w http.ResponseWriter, r *http.Request) {
	lista, err := a.quinielas.ListarQuinielas(r.Context(), false, true)
	if err != nil {
		a.logger.Error("erro ao listar quinielas", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarQuiniela(w http.ResponseWriter, r *http.Request) {
	var req quinielaRequest
	if err := decodificar(r, &req); err != nil {
		responderErro(w, err)
		return
	}

	q, err := a.quinielas.CriarQuiniela(r.Context(), req.toDomain(), req.Partidas)
	if err != nil {
		a.logger.Warn("falha ao criar quiniela", "err", err)
		responderErro(w, err)
		return
	}

	a.logger.Info("quiniela criada", "quiniela", q.ID, "partidas", len(q.Partidas), "por", responsavel(r))
	responderJSON(w, http.StatusCreated, q)
}

func (a *API) atualizarQuiniela(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}
	var req quinielaRequest
	if err := decodificar(r, &req); err != nil {
		responderErro(w, err)
		return
	}

	q := req.toDomain()
	q.ID = domain.QuinielaID(id)
	atualizada, err := a.quinielas.AtualizarQuiniela(r.Context(), q)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, atualizada)
}

func (a *API) excluirQuiniela(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	if err := a.quinielas.ExcluirQuiniela(r.Context(), domain.QuinielaID(id)); err != nil {
		responderErro(w, err)
		return
	}
	a.logger.Info("quiniela excluida", "quiniela", id, "por", responsavel(r))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listarApostas(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	apostas, err := a.quinielas.ListarApostas(r.Context(), domain.QuinielaID(id))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, apostas)
}

func (a *API) excluirAposta(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	if err := a.quinielas.ExcluirAposta(r.Context(), domain.ApostaID(id)); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) marcarPago(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	aposta, err := a.quinielas.MarcarPago(r.Context(), domain.ApostaID(id))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, aposta)
}

func (a *API) recontar(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	total, err := a.quinielas.RecontarParticipantes(r.Context(), domain.QuinielaID(id))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]int64{"participantes": total})
}

func (a *API) sincronizar(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	placares, err := a.liquidacao.SincronizarPlacares(r.Context(), domain.QuinielaID(id))
	if err != nil {
		a.logger.Warn("falha ao sincronizar placares", "err", err, "quiniela", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, placares)
}

// liquidar roda inline ou enfileira, conforme o serviço estiver configurado.
func (a *API) liquidar(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}
	var req liquidarRequest
	if err := decodificar(r, &req); err != nil {
		responderErro(w, err)
		return
	}

	quinielaID := domain.QuinielaID(id)
	if a.liquidacao.Assincrono() {
		status, err := a.liquidacao.SolicitarLiquidacao(r.Context(), quinielaID, req.Placares, responsavel(r))
		if err != nil {
			a.responderErroLiquidacao(w, quinielaID, settlement.Relatorio{}, err)
			return
		}
		responderJSON(w, http.StatusAccepted, status)
		return
	}

	rel, err := a.liquidacao.Liquidar(r.Context(), quinielaID, req.Placares, responsavel(r))
	if err != nil {
		a.responderErroLiquidacao(w, quinielaID, rel, err)
		return
	}

	titulo, descricao := settlement.Notificacao(rel, nil)
	responderJSON(w, http.StatusOK, liquidacaoResponse{Titulo: titulo, Descricao: descricao, Relatorio: &rel})
}

func (a *API) responderErroLiquidacao(w http.ResponseWriter, id domain.QuinielaID, rel settlement.Relatorio, err error) {
	status, corpo := classificarErro(err)
	corpo.Titulo, corpo.Descricao = settlement.Notificacao(rel, err)
	a.logger.Error("liquidacao falhou", "err", err, "quiniela", id, "codigo", corpo.Codigo)
	responderJSON(w, status, corpo)
}

func (a *API) statusLiquidacao(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	status, err := a.liquidacao.StatusLiquidacao(r.Context(), domain.QuinielaID(id))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, status)
}

func (a *API) forcarLiberacao(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	if err := a.liquidacao.ForcarLiberacao(r.Context(), domain.QuinielaID(id)); err != nil {
		responderErro(w, err)
		return
	}
	a.logger.Warn("trava de processamento liberada manualmente", "quiniela", id, "por", responsavel(r))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) buscarPartidas(w http.ResponseWriter, r *http.Request) {
	if a.provedor == nil {
		responderErro(w, settlement.ErrSemProvedor)
		return
	}

	q := r.URL.Query()
	partidas, err := a.provedor.BuscarPartidas(r.Context(), domain.FiltroPartidas{
		Liga:      q.Get("liga"),
		Temporada: q.Get("temporada"),
		Rodada:    q.Get("rodada"),
		De:        q.Get("de"),
		Ate:       q.Get("ate"),
	})
	if err != nil {
		a.logger.Warn("falha ao consultar provedor de partidas", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, partidas)
}

func (a *API) obterConfigPagamento(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.quinielas.ObterConfigPagamento(r.Context())
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, cfg)
}

func (a *API) salvarConfigPagamento(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ConfigPagamento
	if err := decodificar(r, &cfg); err != nil {
		responderErro(w, err)
		return
	}

	salva, err := a.quinielas.SalvarConfigPagamento(r.Context(), cfg)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, salva)
}
