package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/quiniela/internal/domain"
)

// ConfigPagamentoRepository mantém o registro único com os dados de pagamento.
type ConfigPagamentoRepository struct {
	db *gorm.DB
}

func NewConfigPagamentoRepository(db *gorm.DB) *ConfigPagamentoRepository {
	return &ConfigPagamentoRepository{db: db}
}

type configPagamentoModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Conta        string    `gorm:"column:conta"`
	Telefone     string    `gorm:"column:telefone"`
	Beneficiario string    `gorm:"column:beneficiario"`
	Banco        string    `gorm:"column:banco"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em"`
}

func (configPagamentoModel) TableName() string {
	return "config_pagamento"
}

func (r *ConfigPagamentoRepository) Obter(ctx context.Context) (domain.ConfigPagamento, error) {
	var model configPagamentoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", domain.ConfigPagamentoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ConfigPagamento{}, domain.ErrNotFound
		}
		return domain.ConfigPagamento{}, fmt.Errorf("gorm pagamento: obter: %w", err)
	}
	return domain.ConfigPagamento{
		ID:           model.ID,
		Conta:        model.Conta,
		Telefone:     model.Telefone,
		Beneficiario: model.Beneficiario,
		Banco:        model.Banco,
		AtualizadoEm: model.AtualizadoEm,
	}, nil
}

// Salvar faz upsert pela chave fixa.
func (r *ConfigPagamentoRepository) Salvar(ctx context.Context, cfg domain.ConfigPagamento) error {
	model := configPagamentoModel{
		ID:           domain.ConfigPagamentoID,
		Conta:        cfg.Conta,
		Telefone:     cfg.Telefone,
		Beneficiario: cfg.Beneficiario,
		Banco:        cfg.Banco,
		AtualizadoEm: cfg.AtualizadoEm,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error; err != nil {
		return fmt.Errorf("gorm pagamento: salvar: %w", err)
	}
	return nil
}

var _ domain.ConfigPagamentoRepository = (*ConfigPagamentoRepository)(nil)
