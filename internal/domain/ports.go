package domain

import (
	"context"
	"time"
)

type QuinielaRepository interface {
	Create(ctx context.Context, q Quiniela) error
	Update(ctx context.Context, q Quiniela) error
	FindByID(ctx context.Context, id QuinielaID) (Quiniela, error)
	List(ctx context.Context, somenteAbertas bool) ([]Quiniela, error)
	Delete(ctx context.Context, id QuinielaID) error
	AdquirirTrava(ctx context.Context, id QuinielaID, responsavel string, em time.Time) error
	LiberarTrava(ctx context.Context, id QuinielaID, em time.Time, finalizada bool) error
	AtualizarParticipantes(ctx context.Context, id QuinielaID, total int64) error
}

type PartidaRepository interface {
	ListByQuiniela(ctx context.Context, quinielaID QuinielaID) ([]Partida, error)
	SalvarResultados(ctx context.Context, quinielaID QuinielaID, partidas []Partida) error
}

type ApostaRepository interface {
	Criar(ctx context.Context, a Aposta) error
	Excluir(ctx context.Context, id ApostaID) error
	FindByID(ctx context.Context, id ApostaID) (Aposta, error)
	ExisteParaUsuario(ctx context.Context, quinielaID QuinielaID, usuarioID string) (bool, error)
	ListByQuiniela(ctx context.Context, quinielaID QuinielaID) ([]Aposta, error)
	ListByUsuario(ctx context.Context, usuarioID string) ([]Aposta, error)
	Classificacao(ctx context.Context, quinielaID QuinielaID) ([]Aposta, error)
	ContarPorQuiniela(ctx context.Context, quinielaID QuinielaID) (int64, error)
	MarcarPago(ctx context.Context, id ApostaID) error
	AtualizarPontuacoes(ctx context.Context, lote []PontuacaoAposta) error
}

type ConfigPagamentoRepository interface {
	Obter(ctx context.Context) (ConfigPagamento, error)
	Salvar(ctx context.Context, cfg ConfigPagamento) error
}

type FilaLiquidacao interface {
	Publicar(ctx context.Context, pedido PedidoLiquidacao) error
	Consumir(ctx context.Context, handler func(context.Context, PedidoLiquidacao) error) error
}

type StatusLiquidacaoStore interface {
	Salvar(ctx context.Context, status StatusLiquidacao) error
	Obter(ctx context.Context, quinielaID QuinielaID) (StatusLiquidacao, error)
}

type CacheRespostas interface {
	Obter(ctx context.Context, chave string) ([]byte, bool, error)
	Guardar(ctx context.Context, chave string, valor []byte) error
}

// Antifraude limita envios repetidos de uma mesma origem.
type Antifraude interface {
	Validar(ctx context.Context, chave string) error
}

// FiltroPartidas espelha os filtros aceitos pelo provedor de dados de partidas.
type FiltroPartidas struct {
	Liga      string
	Temporada string
	Rodada    string
	De        string
	Ate       string
}

// PartidaProvedor é a visão do provedor para uma partida, com placar cru.
type PartidaProvedor struct {
	Partida Partida
	Placar  Placar
}

type ProvedorPartidas interface {
	BuscarPartidas(ctx context.Context, filtro FiltroPartidas) ([]Partida, error)
	BuscarPartida(ctx context.Context, externoID string) (PartidaProvedor, error)
}

type Clock interface {
	Agora() time.Time
}
