package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/quiniela/internal/app/pricing"
	"github.com/marcelojr/quiniela/internal/app/quinielas"
	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/antifraude"
	"github.com/marcelojr/quiniela/internal/platform/ids"
)

const tokenAdmin = "token-admin"

// MockQuinielaService implementa QuinielaService para testes
type MockQuinielaService struct {
	mock.Mock
}

func (m *MockQuinielaService) CriarQuiniela(ctx context.Context, q domain.Quiniela, partidas []domain.Partida) (domain.Quiniela, error) {
	args := m.Called(ctx, q, partidas)
	return args.Get(0).(domain.Quiniela), args.Error(1)
}

func (m *MockQuinielaService) AtualizarQuiniela(ctx context.Context, q domain.Quiniela) (domain.Quiniela, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.Quiniela), args.Error(1)
}

func (m *MockQuinielaService) ObterQuiniela(ctx context.Context, id domain.QuinielaID) (domain.Quiniela, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Quiniela), args.Error(1)
}

func (m *MockQuinielaService) ListarQuinielas(ctx context.Context, somenteAbertas, incluirRestritas bool) ([]domain.Quiniela, error) {
	args := m.Called(ctx, somenteAbertas, incluirRestritas)
	return args.Get(0).([]domain.Quiniela), args.Error(1)
}

func (m *MockQuinielaService) ExcluirQuiniela(ctx context.Context, id domain.QuinielaID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQuinielaService) EnviarAposta(ctx context.Context, nova quinielas.NovaAposta) (domain.Aposta, error) {
	args := m.Called(ctx, nova)
	return args.Get(0).(domain.Aposta), args.Error(1)
}

func (m *MockQuinielaService) Cotar(ctx context.Context, quinielaID domain.QuinielaID, palpites domain.Palpites) (pricing.Cotacao, error) {
	args := m.Called(ctx, quinielaID, palpites)
	return args.Get(0).(pricing.Cotacao), args.Error(1)
}

func (m *MockQuinielaService) ExcluirAposta(ctx context.Context, id domain.ApostaID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQuinielaService) MarcarPago(ctx context.Context, id domain.ApostaID) (domain.Aposta, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Aposta), args.Error(1)
}

func (m *MockQuinielaService) ListarApostas(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	args := m.Called(ctx, quinielaID)
	return args.Get(0).([]domain.Aposta), args.Error(1)
}

func (m *MockQuinielaService) ApostasDoUsuario(ctx context.Context, usuarioID string) ([]domain.Aposta, error) {
	args := m.Called(ctx, usuarioID)
	return args.Get(0).([]domain.Aposta), args.Error(1)
}

func (m *MockQuinielaService) Classificacao(ctx context.Context, quinielaID domain.QuinielaID) ([]quinielas.Posicao, error) {
	args := m.Called(ctx, quinielaID)
	return args.Get(0).([]quinielas.Posicao), args.Error(1)
}

func (m *MockQuinielaService) RecontarParticipantes(ctx context.Context, quinielaID domain.QuinielaID) (int64, error) {
	args := m.Called(ctx, quinielaID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuinielaService) ObterConfigPagamento(ctx context.Context) (domain.ConfigPagamento, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ConfigPagamento), args.Error(1)
}

func (m *MockQuinielaService) SalvarConfigPagamento(ctx context.Context, cfg domain.ConfigPagamento) (domain.ConfigPagamento, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(domain.ConfigPagamento), args.Error(1)
}

func (m *MockQuinielaService) InstrucoesPagamento(ctx context.Context, usuario quinielas.Usuario) (quinielas.Instrucoes, error) {
	args := m.Called(ctx, usuario)
	return args.Get(0).(quinielas.Instrucoes), args.Error(1)
}

func (m *MockQuinielaService) QRCodePagamento(ctx context.Context, usuario quinielas.Usuario) ([]byte, error) {
	args := m.Called(ctx, usuario)
	return args.Get(0).([]byte), args.Error(1)
}

// MockLiquidacaoService implementa LiquidacaoService para testes
type MockLiquidacaoService struct {
	mock.Mock
}

func (m *MockLiquidacaoService) Assincrono() bool {
	return m.Called().Bool(0)
}

func (m *MockLiquidacaoService) Liquidar(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (settlement.Relatorio, error) {
	args := m.Called(ctx, quinielaID, placares, responsavel)
	return args.Get(0).(settlement.Relatorio), args.Error(1)
}

func (m *MockLiquidacaoService) SolicitarLiquidacao(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (domain.StatusLiquidacao, error) {
	args := m.Called(ctx, quinielaID, placares, responsavel)
	return args.Get(0).(domain.StatusLiquidacao), args.Error(1)
}

func (m *MockLiquidacaoService) StatusLiquidacao(ctx context.Context, quinielaID domain.QuinielaID) (domain.StatusLiquidacao, error) {
	args := m.Called(ctx, quinielaID)
	return args.Get(0).(domain.StatusLiquidacao), args.Error(1)
}

func (m *MockLiquidacaoService) SincronizarPlacares(ctx context.Context, quinielaID domain.QuinielaID) ([]settlement.PlacarSincronizado, error) {
	args := m.Called(ctx, quinielaID)
	return args.Get(0).([]settlement.PlacarSincronizado), args.Error(1)
}

func (m *MockLiquidacaoService) ForcarLiberacao(ctx context.Context, quinielaID domain.QuinielaID) error {
	return m.Called(ctx, quinielaID).Error(0)
}

type fakeProvedor struct {
	partidas []domain.Partida
	filtro   domain.FiltroPartidas
}

func (f *fakeProvedor) BuscarPartidas(_ context.Context, filtro domain.FiltroPartidas) ([]domain.Partida, error) {
	f.filtro = filtro
	return f.partidas, nil
}

func (f *fakeProvedor) BuscarPartida(context.Context, string) (domain.PartidaProvedor, error) {
	return domain.PartidaProvedor{}, domain.ErrNotFound
}

// setupAPI cria o router com serviços mockados
func setupAPI(t *testing.T, provedor domain.ProvedorPartidas) (http.Handler, *MockQuinielaService, *MockLiquidacaoService) {
	quinielaSvc := new(MockQuinielaService)
	liquidacaoSvc := new(MockLiquidacaoService)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	api := New(quinielaSvc, liquidacaoSvc, provedor, tokenAdmin, logger)

	t.Cleanup(func() {
		quinielaSvc.AssertExpectations(t)
		liquidacaoSvc.AssertExpectations(t)
	})

	return api.Router(nil), quinielaSvc, liquidacaoSvc
}

func executar(router http.Handler, metodo, caminho, corpo string, headers map[string]string) *httptest.ResponseRecorder {
	var body io.Reader
	if corpo != "" {
		body = strings.NewReader(corpo)
	}
	req := httptest.NewRequest(metodo, caminho, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + tokenAdmin, HeaderUsuarioID: "admin-1"}
}

func lerErro(t *testing.T, w *httptest.ResponseRecorder) Erro {
	var corpo Erro
	require.NoError(t, json.NewDecoder(w.Body).Decode(&corpo))
	return corpo
}

// === GET /healthz ===

func TestHealthz_QuandoSolicitado_DeveRetornar200OK(t *testing.T) {
	router, _, _ := setupAPI(t, nil)

	w := executar(router, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

// === GET /quinielas ===

func TestListarQuinielas_QuandoFiltroAbertas_DeveRepassarEOcultarRestritas(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)

	lista := []domain.Quiniela{{ID: "01HZX0000000000000000000A1", Titulo: "Rodada 1"}}
	quinielaSvc.On("ListarQuinielas", mock.Anything, true, false).Return(lista, nil)

	w := executar(router, http.MethodGet, "/quinielas?abertas=true", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resposta []domain.Quiniela
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resposta))
	require.Len(t, resposta, 1)
	assert.Equal(t, "Rodada 1", resposta[0].Titulo)
}

func TestObterQuiniela_QuandoIDForaDoFormato_DeveRetornar404SemConsultar(t *testing.T) {
	router, _, _ := setupAPI(t, nil)

	w := executar(router, http.MethodGet, "/quinielas/nao-e-ulid", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not-found", lerErro(t, w).Codigo)
}

func TestObterQuiniela_QuandoErroInterno_DeveOcultarDetalhes(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()

	quinielaSvc.On("ObterQuiniela", mock.Anything, domain.QuinielaID(id)).
		Return(domain.Quiniela{}, errors.New("gorm quiniela: conexao recusada"))

	w := executar(router, http.MethodGet, "/quinielas/"+id, "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	corpo := lerErro(t, w)
	assert.Equal(t, "interno", corpo.Codigo)
	assert.NotContains(t, corpo.Descricao, "gorm")
}

// === POST /quinielas/{id}/apostas ===

func TestEnviarAposta_QuandoValida_DeveRetornar201ComIdentidadeDoGateway(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()

	esperado := func(n quinielas.NovaAposta) bool {
		return n.QuinielaID == domain.QuinielaID(id) &&
			n.Usuario == quinielas.Usuario{ID: "user-1", Nome: "Ana", Email: "ana@example.com"} &&
			n.Palpites["p1"].Contem(domain.ResultadoCasa) &&
			n.Palpites["p2"].Contem(domain.ResultadoEmpate) &&
			n.Palpites["p2"].Contem(domain.ResultadoFora)
	}
	quinielaSvc.On("EnviarAposta", mock.Anything, mock.MatchedBy(esperado)).
		Return(domain.Aposta{ID: "a-1", Combinacoes: 2, CustoTotal: 200}, nil)

	w := executar(router, http.MethodPost, "/quinielas/"+id+"/apostas",
		`{"palpites":{"p1":"HOME","p2":["DRAW","AWAY"]}}`,
		map[string]string{HeaderUsuarioID: "user-1", HeaderUsuarioNome: "Ana", HeaderUsuarioEmail: "ana@example.com"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var aposta domain.Aposta
	require.NoError(t, json.NewDecoder(w.Body).Decode(&aposta))
	assert.Equal(t, int64(2), aposta.Combinacoes)
	assert.Equal(t, 200.0, aposta.CustoTotal)
}

func TestEnviarAposta_QuandoPayloadInvalido_DeveRetornar400(t *testing.T) {
	router, _, _ := setupAPI(t, nil)

	w := executar(router, http.MethodPost, "/quinielas/"+ids.NewULID()+"/apostas", `{"palpites":`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "payload-invalido", lerErro(t, w).Codigo)
}

func TestEnviarAposta_QuandoServicoRecusa_DeveMapearErro(t *testing.T) {
	casos := []struct {
		nome   string
		err    error
		status int
		codigo string
	}{
		{"prazo encerrado", quinielas.ErrPrazoEncerrado, http.StatusConflict, "prazo-encerrado"},
		{"quiniela fechada", quinielas.ErrQuinielaFechada, http.StatusConflict, "quiniela-fechada"},
		{"palpites incompletos", fmt.Errorf("%w: partida p3", quinielas.ErrPalpitesIncompletos), http.StatusUnprocessableEntity, "validacao"},
		{"limite de triplos", pricing.ErrLimiteTriplos, http.StatusUnprocessableEntity, "validacao"},
		{"duplicada", fmt.Errorf("%w: usuario ja enviou", domain.ErrAlreadyExists), http.StatusConflict, "already-exists"},
		{"sem usuario", quinielas.ErrUsuarioObrigatorio, http.StatusForbidden, "permission-denied"},
		{"rate limit", antifraude.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate-limited"},
		{"lotada", quinielas.ErrLotada, http.StatusConflict, "lotada"},
		{"nao encontrada", domain.ErrNotFound, http.StatusNotFound, "not-found"},
	}

	for _, caso := range casos {
		t.Run(caso.nome, func(t *testing.T) {
			router, quinielaSvc, _ := setupAPI(t, nil)
			quinielaSvc.On("EnviarAposta", mock.Anything, mock.Anything).Return(domain.Aposta{}, caso.err)

			w := executar(router, http.MethodPost, "/quinielas/"+ids.NewULID()+"/apostas", `{"palpites":{}}`,
				map[string]string{HeaderUsuarioID: "user-1"})

			assert.Equal(t, caso.status, w.Code)
			corpo := lerErro(t, w)
			assert.Equal(t, caso.codigo, corpo.Codigo)
			assert.NotEmpty(t, corpo.Titulo)
		})
	}
}

// === POST /quinielas/{id}/cotacao ===

func TestCotar_DeveRetornarCotacao(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()

	quinielaSvc.On("Cotar", mock.Anything, domain.QuinielaID(id), mock.Anything).
		Return(pricing.Cotacao{Duplos: 1, Triplos: 1, Combinacoes: 6, CustoTotal: 600, PrecoBase: 100}, nil)

	w := executar(router, http.MethodPost, "/quinielas/"+id+"/cotacao",
		`{"palpites":{"p1":["HOME","DRAW"],"p2":["HOME","DRAW","AWAY"]}}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var cotacao pricing.Cotacao
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cotacao))
	assert.Equal(t, 6.0, cotacao.Combinacoes)
	assert.Equal(t, 600.0, cotacao.CustoTotal)
}

// === GET /me/apostas e pagamento ===

func TestMinhasApostas_QuandoSemIdentidade_DeveRetornar403(t *testing.T) {
	router, _, _ := setupAPI(t, nil)

	w := executar(router, http.MethodGet, "/me/apostas", "", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission-denied", lerErro(t, w).Codigo)
}

func TestMinhasApostas_QuandoIdentificado_DeveListar(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	quinielaSvc.On("ApostasDoUsuario", mock.Anything, "user-1").Return([]domain.Aposta{{ID: "a-1"}, {ID: "a-2"}}, nil)

	w := executar(router, http.MethodGet, "/me/apostas", "", map[string]string{HeaderUsuarioID: "user-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	var apostas []domain.Aposta
	require.NoError(t, json.NewDecoder(w.Body).Decode(&apostas))
	assert.Len(t, apostas, 2)
}

func TestQRCodePagamento_DeveResponderPNG(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	png := []byte("\x89PNG\r\n\x1a\nfake")
	quinielaSvc.On("QRCodePagamento", mock.Anything, quinielas.Usuario{ID: "user-1"}).Return(png, nil)

	w := executar(router, http.MethodGet, "/pagamento/qrcode", "", map[string]string{HeaderUsuarioID: "user-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(png, w.Body.Bytes()))
}

func TestInstrucoesPagamento_QuandoNaoConfigurado_DeveRetornar404(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	quinielaSvc.On("InstrucoesPagamento", mock.Anything, mock.Anything).
		Return(quinielas.Instrucoes{}, quinielas.ErrPagamentoNaoConfigurado)

	w := executar(router, http.MethodGet, "/pagamento", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// === /admin ===

func TestAdmin_QuandoTokenAusenteOuErrado_DeveRetornar403(t *testing.T) {
	router, _, _ := setupAPI(t, nil)

	semToken := executar(router, http.MethodGet, "/admin/quinielas", "", nil)
	tokenErrado := executar(router, http.MethodGet, "/admin/quinielas", "", map[string]string{"Authorization": "Bearer outro"})
	semBearer := executar(router, http.MethodGet, "/admin/quinielas", "", map[string]string{"Authorization": tokenAdmin})

	assert.Equal(t, http.StatusForbidden, semToken.Code)
	assert.Equal(t, http.StatusForbidden, tokenErrado.Code)
	assert.Equal(t, http.StatusForbidden, semBearer.Code)
}

func TestAdmin_QuandoTokenNaoConfigurado_DeveNegarTudo(t *testing.T) {
	quinielaSvc := new(MockQuinielaService)
	api := New(quinielaSvc, new(MockLiquidacaoService), nil, "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := executar(api.Router(nil), http.MethodGet, "/admin/quinielas", "", map[string]string{"Authorization": "Bearer "})

	assert.Equal(t, http.StatusForbidden, w.Code)
	quinielaSvc.AssertNotCalled(t, "ListarQuinielas", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminListarQuinielas_DeveIncluirRestritas(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	quinielaSvc.On("ListarQuinielas", mock.Anything, false, true).
		Return([]domain.Quiniela{{Tipo: domain.TipoRestrita}}, nil)

	w := executar(router, http.MethodGet, "/admin/quinielas", "", admin())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCriarQuiniela_DeveRepassarPartidas(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	fecha := time.Date(2030, 1, 10, 18, 0, 0, 0, time.UTC)

	quinielaSvc.On("CriarQuiniela", mock.Anything,
		mock.MatchedBy(func(q domain.Quiniela) bool {
			return q.Titulo == "Rodada 5" && q.PrecoBase == 50 && q.FechaEm.Equal(fecha) && q.Tipo == domain.TipoRestrita
		}),
		mock.MatchedBy(func(p []domain.Partida) bool {
			return len(p) == 2 && p[0].TimeCasa == "Boca" && p[1].ExternoID == "99"
		}),
	).Return(domain.Quiniela{ID: "01HZX0000000000000000000B1", Titulo: "Rodada 5"}, nil)

	corpo := `{"titulo":" Rodada 5 ","tipo":"restricted","preco_base":50,"fecha_em":"2030-01-10T18:00:00Z",
		"partidas":[{"time_casa":"Boca","time_fora":"River"},{"time_casa":"Racing","time_fora":"Indep","externo_id":"99"}]}`
	w := executar(router, http.MethodPost, "/admin/quinielas", corpo, admin())

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestExcluirQuiniela_DeveRetornar204(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()
	quinielaSvc.On("ExcluirQuiniela", mock.Anything, domain.QuinielaID(id)).Return(nil)

	w := executar(router, http.MethodDelete, "/admin/quinielas/"+id, "", admin())

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAtualizarQuiniela_QuandoEmLiquidacao_DeveRetornar412(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()
	quinielaSvc.On("AtualizarQuiniela", mock.Anything, mock.MatchedBy(func(q domain.Quiniela) bool {
		return q.ID == domain.QuinielaID(id)
	})).Return(domain.Quiniela{}, quinielas.ErrEmLiquidacao)

	w := executar(router, http.MethodPut, "/admin/quinielas/"+id, `{"titulo":"Rodada 6"}`, admin())

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "failed-precondition", lerErro(t, w).Codigo)
}

func TestMarcarPago_DeveRetornarApostaAtualizada(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()
	quinielaSvc.On("MarcarPago", mock.Anything, domain.ApostaID(id)).
		Return(domain.Aposta{ID: domain.ApostaID(id), StatusPagamento: domain.PagamentoPago}, nil)

	w := executar(router, http.MethodPost, "/admin/apostas/"+id+"/pago", "", admin())

	assert.Equal(t, http.StatusOK, w.Code)
	var aposta domain.Aposta
	require.NoError(t, json.NewDecoder(w.Body).Decode(&aposta))
	assert.Equal(t, domain.PagamentoPago, aposta.StatusPagamento)
}

func TestRecontar_DeveRetornarTotal(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	id := ids.NewULID()
	quinielaSvc.On("RecontarParticipantes", mock.Anything, domain.QuinielaID(id)).Return(int64(7), nil)

	w := executar(router, http.MethodPost, "/admin/quinielas/"+id+"/recontar", "", admin())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"participantes":7}`, w.Body.String())
}

// === liquidação ===

func TestLiquidar_QuandoSincrono_DeveRetornarRelatorioENotificacao(t *testing.T) {
	router, _, liquidacaoSvc := setupAPI(t, nil)
	id := ids.NewULID()
	placares := map[domain.PartidaID]domain.Placar{"p1": {Casa: "2", Fora: "1", Status: "FT"}}

	liquidacaoSvc.On("Assincrono").Return(false)
	liquidacaoSvc.On("Liquidar", mock.Anything, domain.QuinielaID(id), placares, "admin-1").
		Return(settlement.Relatorio{ApostasPontuadas: 3, Lotes: 1, PartidasValidas: 1}, nil)

	w := executar(router, http.MethodPost, "/admin/quinielas/"+id+"/liquidar",
		`{"placares":{"p1":{"casa":"2","fora":"1","status":"FT"}}}`, admin())

	assert.Equal(t, http.StatusOK, w.Code)
	var resposta liquidacaoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resposta))
	assert.Equal(t, "Liquidação concluída", resposta.Titulo)
	require.NotNil(t, resposta.Relatorio)
	assert.Equal(t, 3, resposta.Relatorio.ApostasPontuadas)
}

func TestLiquidar_QuandoTravada_DeveRetornar409ComDetentor(t *testing.T) {
	router, _, liquidacaoSvc := setupAPI(t, nil)
	id := ids.NewULID()

	liquidacaoSvc.On("Assincrono").Return(false)
	liquidacaoSvc.On("Liquidar", mock.Anything, domain.QuinielaID(id), mock.Anything, "admin-1").
		Return(settlement.Relatorio{}, &domain.TravaError{Responsavel: "admin-2"})

	w := executar(router, http.MethodPost, "/admin/quinielas/"+id+"/liquidar", `{"placares":{}}`, admin())

	assert.Equal(t, http.StatusConflict, w.Code)
	corpo := lerErro(t, w)
	assert.Equal(t, "travada", corpo.Codigo)
	assert.Equal(t, "Quiniela em processamento", corpo.Titulo)
	assert.Contains(t, corpo.Descricao, "admin-2")
}

func TestLiquidar_QuandoAssincrono_DeveRetornar202(t *testing.T) {
	router, _, liquidacaoSvc := setupAPI(t, nil)
	id := ids.NewULID()

	liquidacaoSvc.On("Assincrono").Return(true)
	liquidacaoSvc.On("SolicitarLiquidacao", mock.Anything, domain.QuinielaID(id), mock.Anything, "admin-1").
		Return(domain.StatusLiquidacao{PedidoID: "pedido-1", Estado: domain.LiquidacaoPendente}, nil)

	w := executar(router, http.MethodPost, "/admin/quinielas/"+id+"/liquidar", `{"placares":{}}`, admin())

	assert.Equal(t, http.StatusAccepted, w.Code)
	var status domain.StatusLiquidacao
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "pedido-1", status.PedidoID)
}

func TestStatusLiquidacao_QuandoSemFila_DeveRetornar503(t *testing.T) {
	router, _, liquidacaoSvc := setupAPI(t, nil)
	id := ids.NewULID()
	liquidacaoSvc.On("StatusLiquidacao", mock.Anything, domain.QuinielaID(id)).
		Return(domain.StatusLiquidacao{}, settlement.ErrSemFila)

	w := executar(router, http.MethodGet, "/admin/quinielas/"+id+"/liquidacao", "", admin())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", lerErro(t, w).Codigo)
}

func TestForcarLiberacao_DeveRetornar204(t *testing.T) {
	router, _, liquidacaoSvc := setupAPI(t, nil)
	id := ids.NewULID()
	liquidacaoSvc.On("ForcarLiberacao", mock.Anything, domain.QuinielaID(id)).Return(nil)

	w := executar(router, http.MethodDelete, "/admin/quinielas/"+id+"/trava", "", admin())

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSincronizar_DeveRetornarPlacaresSugeridos(t *testing.T) {
	router, _, liquidacaoSvc := setupAPI(t, nil)
	id := ids.NewULID()
	liquidacaoSvc.On("SincronizarPlacares", mock.Anything, domain.QuinielaID(id)).
		Return([]settlement.PlacarSincronizado{{PartidaID: "p1", Fonte: settlement.FonteProvedor}}, nil)

	w := executar(router, http.MethodPost, "/admin/quinielas/"+id+"/sincronizar", "", admin())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fonte":"provedor"`)
}

// === provedor ===

func TestBuscarPartidas_QuandoSemProvedor_DeveRetornar503(t *testing.T) {
	router, _, _ := setupAPI(t, nil)

	w := executar(router, http.MethodGet, "/admin/partidas?liga=39", "", admin())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBuscarPartidas_DeveRepassarFiltros(t *testing.T) {
	provedor := &fakeProvedor{partidas: []domain.Partida{{ExternoID: "1", TimeCasa: "A", TimeFora: "B"}}}
	router, _, _ := setupAPI(t, provedor)

	w := executar(router, http.MethodGet, "/admin/partidas?liga=39&temporada=2024&rodada=R1&de=2024-05-01&ate=2024-05-07", "", admin())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.FiltroPartidas{Liga: "39", Temporada: "2024", Rodada: "R1", De: "2024-05-01", Ate: "2024-05-07"}, provedor.filtro)
}

func TestSalvarConfigPagamento_DeveRetornarConfigSalva(t *testing.T) {
	router, quinielaSvc, _ := setupAPI(t, nil)
	quinielaSvc.On("SalvarConfigPagamento", mock.Anything, domain.ConfigPagamento{Banco: "Banco X", Conta: "123"}).
		Return(domain.ConfigPagamento{Banco: "Banco X", Conta: "123"}, nil)

	w := executar(router, http.MethodPut, "/admin/pagamento", `{"banco":"Banco X","conta":"123"}`, admin())

	assert.Equal(t, http.StatusOK, w.Code)
}
