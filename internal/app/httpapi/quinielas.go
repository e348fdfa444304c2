package httpapi

import (
	"net/http"
	"strconv"

	"github.com/marcelojr/quiniela/internal/app/quinielas"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/metrics"
)

type palpitesRequest struct {
	Palpites domain.Palpites `json:"palpites"`
}

// listarQuinielas mostra só quinielas do tipo aberto; ?abertas=true filtra pelo status.
func (a *API) listarQuinielas(w http.ResponseWriter, r *http.Request) {
	somenteAbertas, _ := strconv.ParseBool(r.URL.Query().Get("abertas"))

	lista, err := a.quinielas.ListarQuinielas(r.Context(), somenteAbertas, false)
	if err != nil {
		a.logger.Error("erro ao listar quinielas", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) obterQuiniela(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	q, err := a.quinielas.ObterQuiniela(r.Context(), domain.QuinielaID(id))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, q)
}

func (a *API) classificacao(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	posicoes, err := a.quinielas.Classificacao(r.Context(), domain.QuinielaID(id))
	if err != nil {
		a.logger.Error("erro ao montar classificacao", "err", err, "quiniela", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, posicoes)
}

func (a *API) cotar(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		responderErro(w, err)
		return
	}
	var req palpitesRequest
	if err := decodificar(r, &req); err != nil {
		responderErro(w, err)
		return
	}

	cotacao, err := a.quinielas.Cotar(r.Context(), domain.QuinielaID(id), req.Palpites)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, cotacao)
}

func (a *API) enviarAposta(w http.ResponseWriter, r *http.Request) {
	id, err := parametroID(r)
	if err != nil {
		metrics.ObserveApostaRequest("not-found")
		responderErro(w, err)
		return
	}
	var req palpitesRequest
	if err := decodificar(r, &req); err != nil {
		metrics.ObserveApostaRequest("payload-invalido")
		a.logger.Warn("payload invalido ao enviar aposta", "err", err)
		responderErro(w, err)
		return
	}

	usuario := usuarioDoGateway(r)
	aposta, err := a.quinielas.EnviarAposta(r.Context(), quinielas.NovaAposta{
		QuinielaID: domain.QuinielaID(id),
		Usuario:    usuario,
		Palpites:   req.Palpites,
	})
	if err != nil {
		_, corpo := classificarErro(err)
		metrics.ObserveApostaRequest(corpo.Codigo)
		a.logger.Warn("falha ao enviar aposta", "err", err, "quiniela", id, "usuario", usuario.ID, "codigo", corpo.Codigo)
		responderErro(w, err)
		return
	}

	metrics.ObserveApostaRequest("aceita")
	a.logger.Info("aposta recebida", "quiniela", id, "usuario", usuario.ID, "combinacoes", aposta.Combinacoes)
	responderJSON(w, http.StatusCreated, aposta)
}

func (a *API) minhasApostas(w http.ResponseWriter, r *http.Request) {
	usuario := usuarioDoGateway(r)
	if usuario.ID == "" {
		responderErro(w, quinielas.ErrUsuarioObrigatorio)
		return
	}

	apostas, err := a.quinielas.ApostasDoUsuario(r.Context(), usuario.ID)
	if err != nil {
		a.logger.Error("erro ao listar apostas do usuario", "err", err, "usuario", usuario.ID)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, apostas)
}

func (a *API) instrucoesPagamento(w http.ResponseWriter, r *http.Request) {
	instrucoes, err := a.quinielas.InstrucoesPagamento(r.Context(), usuarioDoGateway(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, instrucoes)
}

func (a *API) qrcodePagamento(w http.ResponseWriter, r *http.Request) {
	png, err := a.quinielas.QRCodePagamento(r.Context(), usuarioDoGateway(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
