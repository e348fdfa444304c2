// Pacote worker contém o processamento assíncrono das liquidações vindas da fila Redis
// e as rotinas agendadas de manutenção.
package worker

import (
	"context"
	"fmt"

	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/domain"
)

// Liquidador é o recorte do serviço de liquidação usado pelo worker.
type Liquidador interface {
	Liquidar(ctx context.Context, quinielaID domain.QuinielaID, placares map[domain.PartidaID]domain.Placar, responsavel string) (settlement.Relatorio, error)
}

// SettlementProcessor executa pedidos de liquidação e grava o desfecho para consulta do operador.
type SettlementProcessor struct {
	liquidador Liquidador
	status     domain.StatusLiquidacaoStore
	clock      domain.Clock
}

func NewSettlementProcessor(liquidador Liquidador, status domain.StatusLiquidacaoStore, clock domain.Clock) *SettlementProcessor {
	return &SettlementProcessor{
		liquidador: liquidador,
		status:     status,
		clock:      clock,
	}
}

func (p *SettlementProcessor) Process(ctx context.Context, pedido domain.PedidoLiquidacao) error {
	rel, err := p.liquidador.Liquidar(ctx, pedido.QuinielaID, pedido.Placares, pedido.Responsavel)

	titulo, descricao := settlement.Notificacao(rel, err)
	estado := domain.LiquidacaoSucesso
	if err != nil {
		estado = domain.LiquidacaoFalha
	}

	if p.status != nil {
		// O status é gravado mesmo com falha para que o operador veja a notificação.
		errStatus := p.status.Salvar(ctx, domain.StatusLiquidacao{
			PedidoID:     pedido.ID,
			QuinielaID:   pedido.QuinielaID,
			Estado:       estado,
			Titulo:       titulo,
			Descricao:    descricao,
			Apostas:      rel.ApostasPontuadas,
			AtualizadoEm: p.clock.Agora(),
		})
		if errStatus != nil && err == nil {
			return fmt.Errorf("worker: gravar status do pedido %s: %w", pedido.ID, errStatus)
		}
	}

	if err != nil {
		return fmt.Errorf("worker: liquidar quiniela %s: %w", pedido.QuinielaID, err)
	}
	return nil
}
