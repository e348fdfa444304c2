package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type (
	QuinielaID string
	PartidaID  string
	ApostaID   string
)

// Resultado é a classificação oficial de uma partida.
type Resultado string

const (
	ResultadoCasa   Resultado = "HOME"
	ResultadoEmpate Resultado = "DRAW"
	ResultadoFora   Resultado = "AWAY"
)

func (r Resultado) Valido() bool {
	switch r {
	case ResultadoCasa, ResultadoEmpate, ResultadoFora:
		return true
	default:
		return false
	}
}

type TipoQuiniela string

const (
	TipoAberta   TipoQuiniela = "open"
	TipoRestrita TipoQuiniela = "restricted"
)

type StatusQuiniela string

const (
	StatusQuinielaAberta     StatusQuiniela = "open"
	StatusQuinielaFechada    StatusQuiniela = "closed"
	StatusQuinielaFinalizada StatusQuiniela = "finalized"
)

type StatusPagamento string

const (
	PagamentoPendente StatusPagamento = "pending"
	PagamentoPago     StatusPagamento = "paid"
)

type StatusAposta string

const (
	ApostaAtiva      StatusAposta = "active"
	ApostaFinalizada StatusAposta = "finalized"
)

type Quiniela struct {
	ID               QuinielaID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Titulo           string         `gorm:"column:titulo;type:text;not null" json:"titulo"`
	Tipo             TipoQuiniela   `gorm:"column:tipo;type:varchar(16);not null;default:'open'" json:"tipo"`
	PrecoBase        float64        `gorm:"column:preco_base;not null" json:"preco_base"`
	Premio           float64        `gorm:"column:premio" json:"premio"`
	FechaEm          time.Time      `gorm:"column:fecha_em;not null" json:"fecha_em"`
	Descricao        string         `gorm:"column:descricao;type:text" json:"descricao"`
	MaxParticipantes int            `gorm:"column:max_participantes;not null;default:0" json:"max_participantes"`
	Status           StatusQuiniela `gorm:"column:status;type:varchar(16);not null;default:'open'" json:"status"`
	Participantes    int64          `gorm:"column:participantes;not null;default:0" json:"participantes"`
	Temporada        string         `gorm:"column:temporada;type:varchar(16)" json:"temporada"`
	MultiCompeticao  bool           `gorm:"column:multi_competicao;not null;default:false" json:"multi_competicao"`
	Processando      bool           `gorm:"column:is_processing;not null;default:false" json:"is_processing"`
	ProcessadoPor    string         `gorm:"column:processing_by;type:text" json:"processing_by,omitempty"`
	ProcessamentoEm  *time.Time     `gorm:"column:processing_started_at" json:"processing_started_at,omitempty"`
	UltimoProcessoEm *time.Time     `gorm:"column:last_processed_at" json:"last_processed_at,omitempty"`
	Partidas         []Partida      `gorm:"foreignKey:QuinielaID;constraint:OnDelete:CASCADE" json:"partidas,omitempty"`
	CriadoEm         time.Time      `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm     time.Time      `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// Partida fica embutida na quiniela; Ordem preserva a sequência definida pelo admin.
type Partida struct {
	ID           PartidaID  `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	QuinielaID   QuinielaID `gorm:"column:quiniela_id;type:char(26);not null;index" json:"quiniela_id"`
	Ordem        int        `gorm:"column:ordem;not null;default:0" json:"ordem"`
	ExternoID    string     `gorm:"column:externo_id;type:varchar(32)" json:"externo_id"`
	TimeCasa     string     `gorm:"column:time_casa;type:text;not null" json:"time_casa"`
	TimeFora     string     `gorm:"column:time_fora;type:text;not null" json:"time_fora"`
	LogoCasa     string     `gorm:"column:logo_casa;type:text" json:"logo_casa,omitempty"`
	LogoFora     string     `gorm:"column:logo_fora;type:text" json:"logo_fora,omitempty"`
	InicioEm     time.Time  `gorm:"column:inicio_em" json:"inicio_em"`
	StatusJogo   string     `gorm:"column:status_jogo;type:varchar(32);not null;default:'NS'" json:"status_jogo"`
	Estadio      string     `gorm:"column:estadio;type:text" json:"estadio,omitempty"`
	CompeticaoID string     `gorm:"column:competicao_id;type:varchar(32)" json:"competicao_id,omitempty"`
	Competicao   string     `gorm:"column:competicao;type:text" json:"competicao,omitempty"`
	Rodada       string     `gorm:"column:rodada;type:text" json:"rodada,omitempty"`
	GolsCasa     *int       `gorm:"column:gols_casa" json:"gols_casa,omitempty"`
	GolsFora     *int       `gorm:"column:gols_fora" json:"gols_fora,omitempty"`
	Resultado    *Resultado `gorm:"column:resultado;type:varchar(8)" json:"resultado"`
	Valida       bool       `gorm:"column:valida;not null;default:false" json:"is_valid"`
	CalculadoEm  *time.Time `gorm:"column:calculado_em" json:"calculado_em,omitempty"`
}

type Aposta struct {
	ID              ApostaID        `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	QuinielaID      QuinielaID      `gorm:"column:quiniela_id;type:char(26);not null;uniqueIndex:idx_apostas_quiniela_usuario,priority:1;index" json:"quiniela_id"`
	UsuarioID       string          `gorm:"column:usuario_id;type:varchar(128);not null;uniqueIndex:idx_apostas_quiniela_usuario,priority:2;index" json:"usuario_id"`
	UsuarioNome     string          `gorm:"column:usuario_nome;type:text" json:"usuario_nome"`
	UsuarioEmail    string          `gorm:"column:usuario_email;type:text" json:"usuario_email"`
	Palpites        Palpites        `gorm:"column:palpites;type:text;not null" json:"palpites"`
	CustoTotal      float64         `gorm:"column:custo_total;not null" json:"custo_total"`
	Combinacoes     int64           `gorm:"column:combinacoes;not null" json:"combinacoes"`
	PrecoBase       float64         `gorm:"column:preco_base;not null" json:"preco_base"`
	StatusPagamento StatusPagamento `gorm:"column:status_pagamento;type:varchar(16);not null;default:'pending'" json:"status_pagamento"`
	Status          StatusAposta    `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`
	Pontos          int             `gorm:"column:pontos;not null;default:0" json:"pontos"`
	CriadoEm        time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

// ConfigPagamento é o documento único com os dados para transferência.
type ConfigPagamento struct {
	ID           string    `gorm:"column:id;type:varchar(16);primaryKey" json:"-"`
	Conta        string    `gorm:"column:conta;type:text" json:"conta"`
	Telefone     string    `gorm:"column:telefone;type:text" json:"telefone"`
	Beneficiario string    `gorm:"column:beneficiario;type:text" json:"beneficiario"`
	Banco        string    `gorm:"column:banco;type:text" json:"banco"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

const ConfigPagamentoID = "default"

// Selecao guarda os resultados escolhidos para uma partida. Aceita tanto o
// formato antigo (string única) quanto a lista.
type Selecao []Resultado

func (s *Selecao) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var unico Resultado
	if err := json.Unmarshal(data, &unico); err == nil {
		*s = Selecao{unico}
		return nil
	}

	var lista []Resultado
	if err := json.Unmarshal(data, &lista); err != nil {
		return fmt.Errorf("selecao: formato invalido %s", string(data))
	}
	*s = lista
	return nil
}

func (s Selecao) Contem(r Resultado) bool {
	for _, item := range s {
		if item == r {
			return true
		}
	}
	return false
}

// Palpites mapeia partida -> seleção; persistido como JSON numa coluna texto.
type Palpites map[PartidaID]Selecao

func (p Palpites) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("palpites: serializar: %w", err)
	}
	return string(raw), nil
}

func (p *Palpites) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = Palpites{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("palpites: tipo inesperado %T", value)
	}

	resultado := Palpites{}
	if err := json.Unmarshal(raw, &resultado); err != nil {
		return fmt.Errorf("palpites: desserializar: %w", err)
	}
	*p = resultado
	return nil
}

// Copia devolve um mapa independente, útil para cálculos especulativos.
func (p Palpites) Copia() Palpites {
	copia := make(Palpites, len(p))
	for partida, selecao := range p {
		copia[partida] = append(Selecao(nil), selecao...)
	}
	return copia
}

// Placar é o par de gols informado pelo admin ou pelo provedor; chega como texto.
type Placar struct {
	Casa   string `json:"casa"`
	Fora   string `json:"fora"`
	Status string `json:"status,omitempty"`
}

// PedidoLiquidacao trafega pela fila quando a liquidação roda no worker.
type PedidoLiquidacao struct {
	ID          string               `json:"id"`
	QuinielaID  QuinielaID           `json:"quiniela_id"`
	Placares    map[PartidaID]Placar `json:"placares"`
	Responsavel string               `json:"responsavel"`
	CriadoEm    time.Time            `json:"criado_em"`
}

// StatusLiquidacao é o último desfecho conhecido de uma liquidação assíncrona.
type StatusLiquidacao struct {
	PedidoID     string     `json:"pedido_id"`
	QuinielaID   QuinielaID `json:"quiniela_id"`
	Estado       string     `json:"estado"`
	Titulo       string     `json:"titulo"`
	Descricao    string     `json:"descricao"`
	Apostas      int        `json:"apostas"`
	AtualizadoEm time.Time  `json:"atualizado_em"`
}

const (
	LiquidacaoPendente = "pending"
	LiquidacaoSucesso  = "success"
	LiquidacaoFalha    = "failure"
)

// PontuacaoAposta é a escrita aplicada a cada aposta ao final da liquidação.
type PontuacaoAposta struct {
	ApostaID ApostaID
	Pontos   int
}

func (Quiniela) TableName() string { return "quinielas" }
func (Partida) TableName() string { return "partidas" }
func (Aposta) TableName() string { return "apostas" }
func (ConfigPagamento) TableName() string { return "config_pagamento" }
