package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/quiniela/internal/domain"
)

// ApostaRepository guarda apostas e mantém o contador de participantes da quiniela na mesma transação.
type ApostaRepository struct {
	db *gorm.DB
}

func NewApostaRepository(db *gorm.DB) *ApostaRepository {
	return &ApostaRepository{db: db}
}

type apostaModel struct {
	ID              string          `gorm:"column:id;primaryKey"`
	QuinielaID      string          `gorm:"column:quiniela_id;index"`
	UsuarioID       string          `gorm:"column:usuario_id;index"`
	UsuarioNome     string          `gorm:"column:usuario_nome"`
	UsuarioEmail    string          `gorm:"column:usuario_email"`
	Palpites        domain.Palpites `gorm:"column:palpites"`
	CustoTotal      float64         `gorm:"column:custo_total"`
	Combinacoes     int64           `gorm:"column:combinacoes"`
	PrecoBase       float64         `gorm:"column:preco_base"`
	StatusPagamento string          `gorm:"column:status_pagamento"`
	Status          string          `gorm:"column:status"`
	Pontos          int             `gorm:"column:pontos"`
	CriadoEm        time.Time       `gorm:"column:criado_em"`
}

func (apostaModel) TableName() string {
	return "apostas"
}

func (m apostaModel) toDomain() domain.Aposta {
	return domain.Aposta{
		ID:              domain.ApostaID(m.ID),
		QuinielaID:      domain.QuinielaID(m.QuinielaID),
		UsuarioID:       m.UsuarioID,
		UsuarioNome:     m.UsuarioNome,
		UsuarioEmail:    m.UsuarioEmail,
		Palpites:        m.Palpites,
		CustoTotal:      m.CustoTotal,
		Combinacoes:     m.Combinacoes,
		PrecoBase:       m.PrecoBase,
		StatusPagamento: domain.StatusPagamento(m.StatusPagamento),
		Status:          domain.StatusAposta(m.Status),
		Pontos:          m.Pontos,
		CriadoEm:        m.CriadoEm,
	}
}

func fromDomainAposta(a domain.Aposta) apostaModel {
	return apostaModel{
		ID:              string(a.ID),
		QuinielaID:      string(a.QuinielaID),
		UsuarioID:       a.UsuarioID,
		UsuarioNome:     a.UsuarioNome,
		UsuarioEmail:    a.UsuarioEmail,
		Palpites:        a.Palpites,
		CustoTotal:      a.CustoTotal,
		Combinacoes:     a.Combinacoes,
		PrecoBase:       a.PrecoBase,
		StatusPagamento: string(a.StatusPagamento),
		Status:          string(a.Status),
		Pontos:          a.Pontos,
		CriadoEm:        a.CriadoEm,
	}
}

func toDomainApostas(models []apostaModel) []domain.Aposta {
	apostas := make([]domain.Aposta, len(models))
	for i, model := range models {
		apostas[i] = model.toDomain()
	}
	return apostas
}

// Criar depende do índice único (quiniela_id, usuario_id) para barrar envios duplicados concorrentes.
// O incremento condicional vem antes do insert: trava a linha da quiniela e respeita max_participantes.
func (r *ApostaRepository) Criar(ctx context.Context, a domain.Aposta) error {
	model := fromDomainAposta(a)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&quinielaModel{}).
			Where("id = ? AND (max_participantes = 0 OR participantes < max_participantes)", model.QuinielaID).
			Update("participantes", gorm.Expr("participantes + 1"))
		if res.Error != nil {
			return fmt.Errorf("gorm aposta: incrementar participantes: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var total int64
			if err := tx.Model(&quinielaModel{}).Where("id = ?", model.QuinielaID).Count(&total).Error; err != nil {
				return fmt.Errorf("gorm aposta: verificar quiniela: %w", err)
			}
			if total == 0 {
				return fmt.Errorf("gorm aposta: quiniela %s: %w", model.QuinielaID, domain.ErrNotFound)
			}
			return domain.ErrLotada
		}

		if err := tx.Create(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("gorm aposta: inserir: %w", err)
		}
		return nil
	})
}

func (r *ApostaRepository) Excluir(ctx context.Context, id domain.ApostaID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model apostaModel
		if err := tx.Select("id", "quiniela_id").First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm aposta: buscar para excluir: %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(&apostaModel{}).Error; err != nil {
			return fmt.Errorf("gorm aposta: excluir: %w", err)
		}

		// O contador nunca fica negativo, mesmo se já estiver divergente.
		if err := tx.Model(&quinielaModel{}).
			Where("id = ?", model.QuinielaID).
			Update("participantes", gorm.Expr("CASE WHEN participantes > 0 THEN participantes - 1 ELSE 0 END")).Error; err != nil {
			return fmt.Errorf("gorm aposta: decrementar participantes: %w", err)
		}
		return nil
	})
}

func (r *ApostaRepository) FindByID(ctx context.Context, id domain.ApostaID) (domain.Aposta, error) {
	var model apostaModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Aposta{}, domain.ErrNotFound
		}
		return domain.Aposta{}, fmt.Errorf("gorm aposta: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ApostaRepository) ExisteParaUsuario(ctx context.Context, quinielaID domain.QuinielaID, usuarioID string) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&apostaModel{}).
		Where("quiniela_id = ? AND usuario_id = ?", quinielaID, usuarioID).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm aposta: existe para usuario: %w", err)
	}
	return total > 0, nil
}

func (r *ApostaRepository) ListByQuiniela(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	var models []apostaModel
	if err := r.db.WithContext(ctx).
		Where("quiniela_id = ?", quinielaID).
		Order("criado_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm aposta: listar por quiniela: %w", err)
	}
	return toDomainApostas(models), nil
}

func (r *ApostaRepository) ListByUsuario(ctx context.Context, usuarioID string) ([]domain.Aposta, error) {
	var models []apostaModel
	if err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("criado_em DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm aposta: listar por usuario: %w", err)
	}
	return toDomainApostas(models), nil
}

func (r *ApostaRepository) Classificacao(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	var models []apostaModel
	if err := r.db.WithContext(ctx).
		Where("quiniela_id = ?", quinielaID).
		Order("pontos DESC").
		Order("criado_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm aposta: classificacao: %w", err)
	}
	return toDomainApostas(models), nil
}

func (r *ApostaRepository) ContarPorQuiniela(ctx context.Context, quinielaID domain.QuinielaID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&apostaModel{}).
		Where("quiniela_id = ?", quinielaID).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm aposta: contar por quiniela: %w", err)
	}
	return total, nil
}

// MarcarPago só move de pendente para pago.
func (r *ApostaRepository) MarcarPago(ctx context.Context, id domain.ApostaID) error {
	res := r.db.WithContext(ctx).Model(&apostaModel{}).
		Where("id = ? AND status_pagamento = ?", id, string(domain.PagamentoPendente)).
		Update("status_pagamento", string(domain.PagamentoPago))
	if res.Error != nil {
		return fmt.Errorf("gorm aposta: marcar pago: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// AtualizarPontuacoes grava um lote inteiro numa transação.
func (r *ApostaRepository) AtualizarPontuacoes(ctx context.Context, lote []domain.PontuacaoAposta) error {
	if len(lote) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range lote {
			if err := tx.Model(&apostaModel{}).
				Where("id = ?", string(p.ApostaID)).
				Updates(map[string]any{
					"pontos": p.Pontos,
					"status": string(domain.ApostaFinalizada),
				}).Error; err != nil {
				return fmt.Errorf("gorm aposta: atualizar pontuacao %s: %w", p.ApostaID, err)
			}
		}
		return nil
	})
}

var _ domain.ApostaRepository = (*ApostaRepository)(nil)
