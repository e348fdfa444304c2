// Pacote quinielas implementa as regras de negócio de quinielas, apostas e pagamento.
package quinielas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/marcelojr/quiniela/internal/app/pricing"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/ids"
)

var (
	ErrQuinielaInvalida    = errors.New("quiniela invalida")
	ErrPrazoEncerrado      = errors.New("prazo de envio encerrado")
	ErrQuinielaFechada     = errors.New("quiniela nao esta aberta para apostas")
	ErrPalpitesIncompletos = errors.New("palpites incompletos")
	ErrPalpiteInvalido     = errors.New("palpite invalido")
	ErrLotada              = domain.ErrLotada
	ErrUsuarioObrigatorio  = fmt.Errorf("%w: usuario nao identificado", domain.ErrPermissionDenied)
	ErrEmLiquidacao        = fmt.Errorf("%w: quiniela em liquidacao", domain.ErrFailedPrecondition)
)

// Usuario é a identidade repassada pelo gateway de autenticação.
type Usuario struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
}

type NovaAposta struct {
	QuinielaID domain.QuinielaID
	Usuario    Usuario
	Palpites   domain.Palpites
}

// Posicao é uma linha da classificação; empates dividem a mesma posição.
type Posicao struct {
	Posicao int           `json:"posicao"`
	Aposta  domain.Aposta `json:"aposta"`
}

// Service concentra as regras de quinielas e apostas e delega persistência aos repositórios.
type Service struct {
	quinielas  domain.QuinielaRepository
	apostas    domain.ApostaRepository
	pagamento  domain.ConfigPagamentoRepository
	antifraude domain.Antifraude
	clock      domain.Clock
	ids        *ids.Generator
	logger     *slog.Logger
}

func NewService(
	quinielas domain.QuinielaRepository,
	apostas domain.ApostaRepository,
	pagamento domain.ConfigPagamentoRepository,
	antifraude domain.Antifraude,
	clock domain.Clock,
	idsGen *ids.Generator,
	logger *slog.Logger,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		quinielas:  quinielas,
		apostas:    apostas,
		pagamento:  pagamento,
		antifraude: antifraude,
		clock:      clock,
		ids:        idsGen,
		logger:     logger,
	}
}

// CriarQuiniela valida os dados, gera os identificadores e grava quiniela e partidas juntas.
func (s *Service) CriarQuiniela(ctx context.Context, q domain.Quiniela, partidas []domain.Partida) (domain.Quiniela, error) {
	agora := s.clock.Agora()

	if q.PrecoBase == 0 {
		q.PrecoBase = pricing.PrecoBasePadrao
	}
	if q.Tipo == "" {
		q.Tipo = domain.TipoAberta
	}
	if err := validarQuiniela(q); err != nil {
		return domain.Quiniela{}, err
	}
	if !q.FechaEm.After(agora) {
		return domain.Quiniela{}, fmt.Errorf("%w: prazo deve estar no futuro", ErrQuinielaInvalida)
	}
	if len(partidas) == 0 {
		return domain.Quiniela{}, fmt.Errorf("%w: ao menos uma partida", ErrQuinielaInvalida)
	}

	q.ID = domain.QuinielaID(s.ids.New())
	q.Status = domain.StatusQuinielaAberta
	q.Participantes = 0
	q.Processando = false
	q.ProcessadoPor = ""
	q.ProcessamentoEm = nil
	q.UltimoProcessoEm = nil
	q.CriadoEm = agora
	q.AtualizadoEm = agora

	q.Partidas = make([]domain.Partida, len(partidas))
	for i, p := range partidas {
		if strings.TrimSpace(p.TimeCasa) == "" || strings.TrimSpace(p.TimeFora) == "" {
			return domain.Quiniela{}, fmt.Errorf("%w: partida %d sem times", ErrQuinielaInvalida, i+1)
		}
		p.ID = domain.PartidaID(s.ids.New())
		p.QuinielaID = q.ID
		p.Ordem = i
		if p.StatusJogo == "" {
			p.StatusJogo = "NS"
		}
		p.GolsCasa, p.GolsFora, p.Resultado, p.Valida, p.CalculadoEm = nil, nil, nil, false, nil
		q.Partidas[i] = p
	}

	if err := s.quinielas.Create(ctx, q); err != nil {
		return domain.Quiniela{}, err
	}
	s.logger.Info("quiniela criada", "quiniela_id", q.ID, "partidas", len(q.Partidas))
	return q, nil
}

// AtualizarQuiniela é a única forma de alterar prazo, preço e demais dados editáveis.
func (s *Service) AtualizarQuiniela(ctx context.Context, q domain.Quiniela) (domain.Quiniela, error) {
	atual, err := s.quinielas.FindByID(ctx, q.ID)
	if err != nil {
		return domain.Quiniela{}, err
	}
	// Editar durante a liquidação disputaria o status com a liberação da trava.
	if atual.Processando {
		return domain.Quiniela{}, ErrEmLiquidacao
	}

	if q.Status == "" {
		q.Status = atual.Status
	}
	if q.Tipo == "" {
		q.Tipo = atual.Tipo
	}
	if err := validarQuiniela(q); err != nil {
		return domain.Quiniela{}, err
	}
	switch q.Status {
	case domain.StatusQuinielaAberta, domain.StatusQuinielaFechada, domain.StatusQuinielaFinalizada:
	default:
		return domain.Quiniela{}, fmt.Errorf("%w: status %q", ErrQuinielaInvalida, q.Status)
	}

	atual.Titulo = q.Titulo
	atual.Descricao = q.Descricao
	atual.Tipo = q.Tipo
	atual.PrecoBase = q.PrecoBase
	atual.Premio = q.Premio
	atual.FechaEm = q.FechaEm
	atual.MaxParticipantes = q.MaxParticipantes
	atual.Status = q.Status
	atual.Temporada = q.Temporada
	atual.MultiCompeticao = q.MultiCompeticao
	atual.AtualizadoEm = s.clock.Agora()

	if err := s.quinielas.Update(ctx, atual); err != nil {
		return domain.Quiniela{}, err
	}
	return atual, nil
}

func (s *Service) ObterQuiniela(ctx context.Context, id domain.QuinielaID) (domain.Quiniela, error) {
	return s.quinielas.FindByID(ctx, id)
}

// ListarQuinielas devolve as quinielas do tipo aberto; restritas só aparecem para o admin.
func (s *Service) ListarQuinielas(ctx context.Context, somenteAbertas, incluirRestritas bool) ([]domain.Quiniela, error) {
	lista, err := s.quinielas.List(ctx, somenteAbertas)
	if err != nil {
		return nil, err
	}
	if incluirRestritas {
		return lista, nil
	}

	visiveis := lista[:0]
	for _, q := range lista {
		if q.Tipo != domain.TipoRestrita {
			visiveis = append(visiveis, q)
		}
	}
	return visiveis, nil
}

// ExcluirQuiniela remove a quiniela junto com partidas e apostas.
func (s *Service) ExcluirQuiniela(ctx context.Context, id domain.QuinielaID) error {
	q, err := s.quinielas.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if q.Processando {
		return ErrEmLiquidacao
	}
	if err := s.quinielas.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("quiniela excluida", "quiniela_id", id)
	return nil
}

// EnviarAposta aplica todas as validações antes de gravar; nenhuma falha deixa estado parcial.
func (s *Service) EnviarAposta(ctx context.Context, nova NovaAposta) (domain.Aposta, error) {
	if strings.TrimSpace(nova.Usuario.ID) == "" {
		return domain.Aposta{}, ErrUsuarioObrigatorio
	}

	q, err := s.quinielas.FindByID(ctx, nova.QuinielaID)
	if err != nil {
		return domain.Aposta{}, err
	}

	agora := s.clock.Agora()
	if !agora.Before(q.FechaEm) {
		return domain.Aposta{}, ErrPrazoEncerrado
	}
	if q.Status != domain.StatusQuinielaAberta || q.Processando {
		return domain.Aposta{}, ErrQuinielaFechada
	}

	if err := validarPalpites(q.Partidas, nova.Palpites); err != nil {
		return domain.Aposta{}, err
	}

	cotacao := pricing.Calcular(nova.Palpites, q.PrecoBase)
	if err := pricing.ValidarLimites(cotacao); err != nil {
		return domain.Aposta{}, err
	}

	if s.antifraude != nil {
		if err := s.antifraude.Validar(ctx, chaveEnvio(q.ID, nova.Usuario.ID)); err != nil {
			return domain.Aposta{}, err
		}
	}

	existe, err := s.apostas.ExisteParaUsuario(ctx, q.ID, nova.Usuario.ID)
	if err != nil {
		return domain.Aposta{}, err
	}
	if existe {
		return domain.Aposta{}, fmt.Errorf("%w: usuario ja enviou aposta para esta quiniela", domain.ErrAlreadyExists)
	}

	aposta := domain.Aposta{
		ID:              domain.ApostaID(s.ids.New()),
		QuinielaID:      q.ID,
		UsuarioID:       nova.Usuario.ID,
		UsuarioNome:     nova.Usuario.Nome,
		UsuarioEmail:    nova.Usuario.Email,
		Palpites:        nova.Palpites,
		CustoTotal:      cotacao.CustoTotal,
		Combinacoes:     int64(cotacao.Combinacoes),
		PrecoBase:       cotacao.PrecoBase,
		StatusPagamento: domain.PagamentoPendente,
		Status:          domain.ApostaAtiva,
		Pontos:          0,
		CriadoEm:        agora,
	}

	// A unicidade (quiniela, usuario) vem do índice do banco e o limite de participantes
	// do incremento condicional feito pelo repositório na mesma transação.
	if err := s.apostas.Criar(ctx, aposta); err != nil {
		return domain.Aposta{}, err
	}
	s.logger.Info("aposta registrada", "quiniela_id", q.ID, "aposta_id", aposta.ID, "combinacoes", aposta.Combinacoes)
	return aposta, nil
}

// Cotar calcula o preço de um conjunto de palpites com o preço base da quiniela, sem gravar nada.
func (s *Service) Cotar(ctx context.Context, quinielaID domain.QuinielaID, palpites domain.Palpites) (pricing.Cotacao, error) {
	q, err := s.quinielas.FindByID(ctx, quinielaID)
	if err != nil {
		return pricing.Cotacao{}, err
	}
	// A prévia aceita palpites parciais, mas não partidas alheias nem resultados repetidos.
	if err := validarSelecoes(q.Partidas, palpites); err != nil {
		return pricing.Cotacao{}, err
	}
	return pricing.Calcular(palpites, q.PrecoBase), nil
}

// ExcluirAposta remove a aposta e decrementa o contador de participantes na mesma transação.
func (s *Service) ExcluirAposta(ctx context.Context, id domain.ApostaID) error {
	return s.apostas.Excluir(ctx, id)
}

// MarcarPago só avança de pendente para pago; se já estiver pago nada muda.
func (s *Service) MarcarPago(ctx context.Context, id domain.ApostaID) (domain.Aposta, error) {
	aposta, err := s.apostas.FindByID(ctx, id)
	if err != nil {
		return domain.Aposta{}, err
	}
	if aposta.StatusPagamento == domain.PagamentoPago {
		return aposta, nil
	}
	if err := s.apostas.MarcarPago(ctx, id); err != nil {
		return domain.Aposta{}, err
	}
	aposta.StatusPagamento = domain.PagamentoPago
	return aposta, nil
}

func (s *Service) ListarApostas(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	if _, err := s.quinielas.FindByID(ctx, quinielaID); err != nil {
		return nil, err
	}
	return s.apostas.ListByQuiniela(ctx, quinielaID)
}

func (s *Service) ApostasDoUsuario(ctx context.Context, usuarioID string) ([]domain.Aposta, error) {
	if strings.TrimSpace(usuarioID) == "" {
		return nil, ErrUsuarioObrigatorio
	}
	return s.apostas.ListByUsuario(ctx, usuarioID)
}

func (s *Service) Classificacao(ctx context.Context, quinielaID domain.QuinielaID) ([]Posicao, error) {
	if _, err := s.quinielas.FindByID(ctx, quinielaID); err != nil {
		return nil, err
	}
	apostas, err := s.apostas.Classificacao(ctx, quinielaID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(apostas, func(i, j int) bool {
		return apostas[i].Pontos > apostas[j].Pontos
	})

	posicoes := make([]Posicao, len(apostas))
	for i, a := range apostas {
		pos := i + 1
		if i > 0 && a.Pontos == apostas[i-1].Pontos {
			pos = posicoes[i-1].Posicao
		}
		posicoes[i] = Posicao{Posicao: pos, Aposta: a}
	}
	return posicoes, nil
}

// RecontarParticipantes recalcula o contador a partir das apostas existentes.
func (s *Service) RecontarParticipantes(ctx context.Context, quinielaID domain.QuinielaID) (int64, error) {
	total, err := s.apostas.ContarPorQuiniela(ctx, quinielaID)
	if err != nil {
		return 0, err
	}
	if err := s.quinielas.AtualizarParticipantes(ctx, quinielaID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// RecontarTodas percorre todas as quinielas; uma falha não interrompe as demais.
func (s *Service) RecontarTodas(ctx context.Context) (int, error) {
	lista, err := s.quinielas.List(ctx, false)
	if err != nil {
		return 0, err
	}

	var (
		corrigidas int
		erros      []error
	)
	for _, q := range lista {
		total, err := s.RecontarParticipantes(ctx, q.ID)
		if err != nil {
			erros = append(erros, fmt.Errorf("quiniela %s: %w", q.ID, err))
			continue
		}
		if total != q.Participantes {
			corrigidas++
			s.logger.Warn("contador de participantes divergente", "quiniela_id", q.ID, "antes", q.Participantes, "depois", total)
		}
	}
	return corrigidas, errors.Join(erros...)
}

func validarQuiniela(q domain.Quiniela) error {
	if strings.TrimSpace(q.Titulo) == "" {
		return fmt.Errorf("%w: titulo obrigatorio", ErrQuinielaInvalida)
	}
	if q.PrecoBase <= 0 {
		return fmt.Errorf("%w: preco base deve ser positivo", ErrQuinielaInvalida)
	}
	if q.MaxParticipantes < 0 {
		return fmt.Errorf("%w: limite de participantes negativo", ErrQuinielaInvalida)
	}
	if q.FechaEm.IsZero() {
		return fmt.Errorf("%w: prazo obrigatorio", ErrQuinielaInvalida)
	}
	switch q.Tipo {
	case domain.TipoAberta, domain.TipoRestrita:
	default:
		return fmt.Errorf("%w: tipo %q", ErrQuinielaInvalida, q.Tipo)
	}
	return nil
}

// validarPalpites exige uma seleção válida, sem repetição, para cada partida da quiniela.
func validarPalpites(partidas []domain.Partida, palpites domain.Palpites) error {
	if err := validarSelecoes(partidas, palpites); err != nil {
		return err
	}
	for _, p := range partidas {
		if _, ok := palpites[p.ID]; !ok {
			return fmt.Errorf("%w: falta palpite para %s x %s", ErrPalpitesIncompletos, p.TimeCasa, p.TimeFora)
		}
	}
	return nil
}

// validarSelecoes confere partidas e resultados informados, sem exigir todas as partidas.
func validarSelecoes(partidas []domain.Partida, palpites domain.Palpites) error {
	conhecidas := make(map[domain.PartidaID]struct{}, len(partidas))
	for _, p := range partidas {
		conhecidas[p.ID] = struct{}{}
	}

	for id, selecao := range palpites {
		if _, ok := conhecidas[id]; !ok {
			return fmt.Errorf("%w: partida %s nao pertence a quiniela", ErrPalpiteInvalido, id)
		}
		if len(selecao) == 0 || len(selecao) > 3 {
			return fmt.Errorf("%w: partida %s com %d resultados", ErrPalpiteInvalido, id, len(selecao))
		}
		vistos := make(map[domain.Resultado]struct{}, len(selecao))
		for _, r := range selecao {
			if !r.Valido() {
				return fmt.Errorf("%w: resultado %q", ErrPalpiteInvalido, r)
			}
			if _, dup := vistos[r]; dup {
				return fmt.Errorf("%w: resultado %q repetido na partida %s", ErrPalpiteInvalido, r, id)
			}
			vistos[r] = struct{}{}
		}
	}
	return nil
}

func chaveEnvio(quinielaID domain.QuinielaID, usuarioID string) string {
	return fmt.Sprintf("aposta:%s:%s", quinielaID, usuarioID)
}
