// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/quiniela/internal/domain"
)

// Lista devolve as versões em ordem de aplicação.
func Lista() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202405010001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Quiniela{}, &domain.Partida{}, &domain.Aposta{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("apostas", "partidas", "quinielas")
			},
		},
		{
			ID: "202405150001_config_pagamento",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.ConfigPagamento{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("config_pagamento")
			},
		},
	}
}

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, Lista())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
