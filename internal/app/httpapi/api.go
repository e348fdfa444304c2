// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para os serviços de quiniela e liquidação.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/quiniela/internal/app/pricing"
	"github.com/marcelojr/quiniela/internal/app/quinielas"
	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/health"
	"github.com/marcelojr/quiniela/internal/platform/ids"
)

// Cabeçalhos preenchidos pelo gateway de autenticação.
const (
	HeaderUsuarioID    = "X-User-ID"
	HeaderUsuarioNome  = "X-User-Name"
	HeaderUsuarioEmail = "X-User-Email"
)

var ErrPayloadInvalido = errors.New("payload invalido")

type QuinielaService interface {
	CriarQuiniela(ctx context.Context, q domain.Quiniela, partidas []domain.Partida) (domain.Quiniela, error)
	AtualizarQuiniela(ctx context.Context, q domain.Quiniela) (domain.Quiniela, error)
	ObterQuiniela(ctx context.Context, id domain.QuinielaID) (domain.Quiniela, error)
	ListarQuinielas(ctx context.Context, somenteAbertas, incluirRestritas bool) ([]domain.Quiniela, error)
	ExcluirQuiniela(ctx context.Context, id domain.QuinielaID) error
	EnviarAposta(ctx context.Context, nova quinielas.NovaAposta) (domain.Aposta, error)
	Cotar(ctx context.Context, quinielaID domain.QuinielaID, palpites domain.Palpites) (pricing.Cotacao, error)
	ExcluirAposta(ctx context.Context, id domain.ApostaID) error
	MarcarPago(ctx context.Context, id domain.ApostaID) (domain.Aposta, error)
	ListarApostas(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error)
	ApostasDoUsuario(ctx context.Context, usuarioID string) ([]domain.Aposta, error)
	Classificacao(ctx context.Context, quinielaID domain.QuinielaID) ([]quinielas.Posicao, error)
	RecontarParticipantes(ctx context.Context, quinielaID domain.QuinielaID) (int64, error)
	ObterConfigPagamento(ctx context.Context) (domain.ConfigPagamento, error)
	SalvarConfigPagamento(ctx context.Context, cfg domain.ConfigPagamento) (domain.ConfigPagamento, error)
	InstrucoesPagamento(ctx context.Context, usuario quinielas.Usuario) (quinielas.Instrucoes, error)
	QRCodePagamento(ctx context.Context, usuario quinielas.Usuario) ([]byte, error)
}

type LiquidacaoService interface {
	Assincrono() bool
	Liquidar(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (settlement.Relatorio, error)
	SolicitarLiquidacao(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (domain.StatusLiquidacao, error)
	StatusLiquidacao(ctx context.Context, quinielaID domain.QuinielaID) (domain.StatusLiquidacao, error)
	SincronizarPlacares(ctx context.Context, quinielaID domain.QuinielaID) ([]settlement.PlacarSincronizado, error)
	ForcarLiberacao(ctx context.Context, quinielaID domain.QuinielaID) error
}

// API empacota os handlers HTTP e suas dependências.
type API struct {
	quinielas  QuinielaService
	liquidacao LiquidacaoService
	provedor   domain.ProvedorPartidas
	adminToken string
	logger     *slog.Logger
}

func New(quinielas QuinielaService, liquidacao LiquidacaoService, provedor domain.ProvedorPartidas, adminToken string, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		quinielas:  quinielas,
		liquidacao: liquidacao,
		provedor:   provedor,
		adminToken: adminToken,
		logger:     logger,
	}
}

// Router monta todas as rotas; ready pode ser nil quando não há dependências para checar.
func (a *API) Router(ready http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.LiveHandler())
	if ready != nil {
		r.Method(http.MethodGet, "/readyz", ready)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/quinielas", func(r chi.Router) {
		r.Get("/", a.listarQuinielas)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.obterQuiniela)
			r.Get("/classificacao", a.classificacao)
			r.Post("/cotacao", a.cotar)
			r.Post("/apostas", a.enviarAposta)
		})
	})
	r.Get("/me/apostas", a.minhasApostas)
	r.Get("/pagamento", a.instrucoesPagamento)
	r.Get("/pagamento/qrcode", a.qrcodePagamento)

	r.Route("/admin", func(r chi.Router) {
		r.Use(a.exigirAdmin)

		r.Get("/quinielas", a.adminListarQuinielas)
		r.Post("/quinielas", a.criarQuiniela)
		r.Route("/quinielas/{id}", func(r chi.Router) {
			r.Put("/", a.atualizarQuiniela)
			r.Delete("/", a.excluirQuiniela)
			r.Get("/apostas", a.listarApostas)
			r.Post("/recontar", a.recontar)
			r.Post("/sincronizar", a.sincronizar)
			r.Post("/liquidar", a.liquidar)
			r.Get("/liquidacao", a.statusLiquidacao)
			r.Delete("/trava", a.forcarLiberacao)
		})
		r.Delete("/apostas/{id}", a.excluirAposta)
		r.Post("/apostas/{id}/pago", a.marcarPago)
		r.Get("/partidas", a.buscarPartidas)
		r.Get("/pagamento", a.obterConfigPagamento)
		r.Put("/pagamento", a.salvarConfigPagamento)
	})

	return r
}

// exigirAdmin compara o bearer token em tempo constante; sem token configurado ninguém entra.
func (a *API) exigirAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || a.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) != 1 {
			a.logger.Warn("acesso admin negado", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
			responderErro(w, fmt.Errorf("%w: token de administrador invalido", domain.ErrPermissionDenied))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func usuarioDoGateway(r *http.Request) quinielas.Usuario {
	return quinielas.Usuario{
		ID:    strings.TrimSpace(r.Header.Get(HeaderUsuarioID)),
		Nome:  strings.TrimSpace(r.Header.Get(HeaderUsuarioNome)),
		Email: strings.TrimSpace(r.Header.Get(HeaderUsuarioEmail)),
	}
}

// responsavel identifica o operador que disparou a ação de admin.
func responsavel(r *http.Request) string {
	if id := usuarioDoGateway(r).ID; id != "" {
		return id
	}
	return "admin"
}

// parametroID rejeita ids fora do formato ULID antes de chegar ao banco.
func parametroID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !ids.Valido(id) {
		return "", fmt.Errorf("%w: id %q", domain.ErrNotFound, id)
	}
	return id, nil
}

func decodificar(r *http.Request, destino any) error {
	if err := json.NewDecoder(r.Body).Decode(destino); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	}
	return nil
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
