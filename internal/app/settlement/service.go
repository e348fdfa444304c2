// Pacote settlement liquida quinielas: deriva resultados, pontua apostas e controla a trava de processamento.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/metrics"
)

// TamanhoLote é o máximo de apostas gravadas por transação.
const TamanhoLote = 400

const (
	FonteProvedor = "provedor"
	FonteLocal    = "local"
)

var (
	ErrPartidaDesconhecida = errors.New("partida nao pertence a quiniela")
	ErrSemProvedor         = fmt.Errorf("%w: provedor de partidas nao configurado", domain.ErrUnavailable)
	ErrSemFila             = fmt.Errorf("%w: fila de liquidacao nao configurada", domain.ErrUnavailable)
)

// Relatorio resume uma execução de Liquidar.
type Relatorio struct {
	ExecucaoID         string            `json:"execucao_id"`
	QuinielaID         domain.QuinielaID `json:"quiniela_id"`
	PartidasLiquidadas int               `json:"partidas_liquidadas"`
	PartidasValidas    int               `json:"partidas_validas"`
	ApostasPontuadas   int               `json:"apostas_pontuadas"`
	Lotes              int               `json:"lotes"`
	Duracao            time.Duration     `json:"duracao"`
}

// PlacarSincronizado é o placar de trabalho sugerido ao operador antes de liquidar.
type PlacarSincronizado struct {
	PartidaID domain.PartidaID `json:"partida_id"`
	ExternoID string           `json:"externo_id,omitempty"`
	TimeCasa  string           `json:"time_casa"`
	TimeFora  string           `json:"time_fora"`
	Placar    domain.Placar    `json:"placar"`
	Fonte     string           `json:"fonte"`
	Erro      string           `json:"erro,omitempty"`
}

type Service struct {
	quinielas domain.QuinielaRepository
	partidas  domain.PartidaRepository
	apostas   domain.ApostaRepository
	provedor  domain.ProvedorPartidas
	fila      domain.FilaLiquidacao
	status    domain.StatusLiquidacaoStore
	clock     domain.Clock
	logger    *slog.Logger
}

func NewService(
	quinielas domain.QuinielaRepository,
	partidas domain.PartidaRepository,
	apostas domain.ApostaRepository,
	provedor domain.ProvedorPartidas,
	fila domain.FilaLiquidacao,
	status domain.StatusLiquidacaoStore,
	clock domain.Clock,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		quinielas: quinielas,
		partidas:  partidas,
		apostas:   apostas,
		provedor:  provedor,
		fila:      fila,
		status:    status,
		clock:     clock,
		logger:    logger,
	}
}

// Assincrono indica se as liquidações são enviadas ao worker.
func (s *Service) Assincrono() bool {
	return s.fila != nil
}

// Liquidar grava os placares confirmados, pontua todas as apostas e libera a trava ao final,
// mesmo em caso de erro. Resultados de partidas já gravados permanecem se a pontuação falhar.
func (s *Service) Liquidar(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (rel Relatorio, err error) {
	inicio := time.Now()
	rel = Relatorio{ExecucaoID: uuid.NewString(), QuinielaID: quinielaID}
	log := s.logger.With("quiniela_id", quinielaID, "execucao_id", rel.ExecucaoID)

	if err := s.quinielas.AdquirirTrava(ctx, quinielaID, responsavel, s.clock.Agora()); err != nil {
		if errors.Is(err, domain.ErrTravada) {
			metrics.IncTravaConflito()
			metrics.ObserveLiquidacao("travada", time.Since(inicio).Seconds())
			log.Warn("liquidacao recusada por trava ativa", "erro", err)
		}
		return rel, err
	}

	defer func() {
		// A liberação não herda o cancelamento do chamador.
		finalizada := err == nil
		if errLib := s.quinielas.LiberarTrava(context.WithoutCancel(ctx), quinielaID, s.clock.Agora(), finalizada); errLib != nil {
			log.Error("falha ao liberar trava da quiniela", "erro", errLib)
		}

		rel.Duracao = time.Since(inicio)
		status := "sucesso"
		if err != nil {
			status = "erro"
			log.Error("liquidacao falhou", "erro", err, "lotes", rel.Lotes)
		} else {
			log.Info("liquidacao concluida", "apostas", rel.ApostasPontuadas, "lotes", rel.Lotes, "duracao", rel.Duracao.String())
		}
		metrics.ObserveLiquidacao(status, rel.Duracao.Seconds())
	}()

	partidas, err := s.partidas.ListByQuiniela(ctx, quinielaID)
	if err != nil {
		return rel, fmt.Errorf("liquidar: listar partidas: %w", err)
	}

	indice := make(map[domain.PartidaID]int, len(partidas))
	for i, p := range partidas {
		indice[p.ID] = i
	}
	for id := range placares {
		if _, ok := indice[id]; !ok {
			return rel, fmt.Errorf("%w: %s", ErrPartidaDesconhecida, id)
		}
	}

	agora := s.clock.Agora()
	atualizadas := make([]domain.Partida, 0, len(placares))
	for id, placar := range placares {
		p := &partidas[indice[id]]
		aplicarPlacar(p, placar, agora)
		atualizadas = append(atualizadas, *p)
		rel.PartidasLiquidadas++
	}

	if len(atualizadas) > 0 {
		if err := s.partidas.SalvarResultados(ctx, quinielaID, atualizadas); err != nil {
			return rel, fmt.Errorf("liquidar: salvar resultados: %w", err)
		}
	}

	oficiais := make(map[domain.PartidaID]domain.Resultado)
	for _, p := range partidas {
		if p.Resultado != nil {
			oficiais[p.ID] = *p.Resultado
		}
	}
	rel.PartidasValidas = len(oficiais)

	apostas, err := s.apostas.ListByQuiniela(ctx, quinielaID)
	if err != nil {
		return rel, fmt.Errorf("liquidar: listar apostas: %w", err)
	}
	if len(apostas) == 0 {
		return rel, nil
	}

	lote := make([]domain.PontuacaoAposta, 0, TamanhoLote)
	gravar := func() error {
		if len(lote) == 0 {
			return nil
		}
		if err := s.apostas.AtualizarPontuacoes(ctx, lote); err != nil {
			return fmt.Errorf("liquidar: gravar lote %d: %w", rel.Lotes+1, err)
		}
		rel.Lotes++
		rel.ApostasPontuadas += len(lote)
		metrics.AddApostasPontuadas(len(lote))
		lote = lote[:0]
		return nil
	}

	for _, a := range apostas {
		lote = append(lote, domain.PontuacaoAposta{ApostaID: a.ID, Pontos: Pontuar(a.Palpites, oficiais)})
		if len(lote) == TamanhoLote {
			if err := gravar(); err != nil {
				return rel, err
			}
		}
	}
	if err := gravar(); err != nil {
		return rel, err
	}

	return rel, nil
}

func aplicarPlacar(p *domain.Partida, placar domain.Placar, agora time.Time) {
	status := p.StatusJogo
	if placar.Status != "" {
		status = placar.Status
		p.StatusJogo = placar.Status
	}

	p.GolsCasa = parseGols(placar.Casa)
	p.GolsFora = parseGols(placar.Fora)
	p.Resultado = DerivarResultado(status, placar.Casa, placar.Fora)
	p.Valida = p.Resultado != nil
	p.CalculadoEm = &agora
}

func parseGols(valor string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(valor))
	if err != nil {
		return nil
	}
	return &n
}

func formatGols(gols *int) string {
	if gols == nil {
		return ""
	}
	return strconv.Itoa(*gols)
}

// SincronizarPlacares consulta o provedor para cada partida e sugere o placar de trabalho.
// Nada é gravado; o operador confirma chamando Liquidar.
func (s *Service) SincronizarPlacares(ctx context.Context, quinielaID domain.QuinielaID) ([]PlacarSincronizado, error) {
	if s.provedor == nil {
		return nil, ErrSemProvedor
	}
	if _, err := s.quinielas.FindByID(ctx, quinielaID); err != nil {
		return nil, err
	}

	partidas, err := s.partidas.ListByQuiniela(ctx, quinielaID)
	if err != nil {
		return nil, fmt.Errorf("sincronizar: listar partidas: %w", err)
	}

	resultado := make([]PlacarSincronizado, 0, len(partidas))
	for _, p := range partidas {
		item := PlacarSincronizado{
			PartidaID: p.ID,
			ExternoID: p.ExternoID,
			TimeCasa:  p.TimeCasa,
			TimeFora:  p.TimeFora,
			Placar: domain.Placar{
				Casa:   formatGols(p.GolsCasa),
				Fora:   formatGols(p.GolsFora),
				Status: p.StatusJogo,
			},
			Fonte: FonteLocal,
		}

		if p.ExternoID != "" {
			remota, err := s.provedor.BuscarPartida(ctx, p.ExternoID)
			switch {
			case err != nil:
				item.Erro = err.Error()
				s.logger.Warn("falha ao consultar provedor", "quiniela_id", quinielaID, "partida_id", p.ID, "erro", err)
			case StatusFinalizado(remota.Placar.Status):
				item.Placar = remota.Placar
				item.Fonte = FonteProvedor
			}
		}
		resultado = append(resultado, item)
	}

	return resultado, nil
}

// ForcarLiberacao limpa uma trava presa quando a liberação automática falhou.
func (s *Service) ForcarLiberacao(ctx context.Context, quinielaID domain.QuinielaID) error {
	if err := s.quinielas.LiberarTrava(ctx, quinielaID, s.clock.Agora(), false); err != nil {
		return err
	}
	s.logger.Warn("trava liberada manualmente", "quiniela_id", quinielaID)
	return nil
}

// SolicitarLiquidacao recusa de imediato se a quiniela já estiver travada e publica o pedido para o worker.
func (s *Service) SolicitarLiquidacao(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (domain.StatusLiquidacao, error) {
	if s.fila == nil {
		return domain.StatusLiquidacao{}, ErrSemFila
	}

	q, err := s.quinielas.FindByID(ctx, quinielaID)
	if err != nil {
		return domain.StatusLiquidacao{}, err
	}
	if q.Processando {
		metrics.IncTravaConflito()
		return domain.StatusLiquidacao{}, &domain.TravaError{Responsavel: q.ProcessadoPor, Desde: q.ProcessamentoEm}
	}

	agora := s.clock.Agora()
	pedido := domain.PedidoLiquidacao{
		ID:          uuid.NewString(),
		QuinielaID:  quinielaID,
		Placares:    placares,
		Responsavel: responsavel,
		CriadoEm:    agora,
	}
	status := domain.StatusLiquidacao{
		PedidoID:     pedido.ID,
		QuinielaID:   quinielaID,
		Estado:       domain.LiquidacaoPendente,
		Titulo:       "Liquidação enfileirada",
		Descricao:    "A liquidação será processada em segundo plano.",
		AtualizadoEm: agora,
	}

	if s.status != nil {
		if err := s.status.Salvar(ctx, status); err != nil {
			return domain.StatusLiquidacao{}, err
		}
	}
	if err := s.fila.Publicar(ctx, pedido); err != nil {
		return domain.StatusLiquidacao{}, err
	}
	return status, nil
}

func (s *Service) StatusLiquidacao(ctx context.Context, quinielaID domain.QuinielaID) (domain.StatusLiquidacao, error) {
	if s.status == nil {
		return domain.StatusLiquidacao{}, ErrSemFila
	}
	return s.status.Obter(ctx, quinielaID)
}

// Notificacao traduz o desfecho de uma liquidação no título e descrição mostrados ao operador.
func Notificacao(rel Relatorio, err error) (titulo, descricao string) {
	var trava *domain.TravaError
	switch {
	case err == nil:
		return "Liquidação concluída", fmt.Sprintf("%d apostas pontuadas em %d lote(s); %d partida(s) com resultado oficial.", rel.ApostasPontuadas, rel.Lotes, rel.PartidasValidas)
	case errors.As(err, &trava):
		return "Quiniela em processamento", trava.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "Quiniela não encontrada", err.Error()
	default:
		return "Falha na liquidação", err.Error()
	}
}
