package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/quiniela/internal/domain"
)

// PartidaRepository lê e grava os resultados das partidas de uma quiniela.
type PartidaRepository struct {
	db *gorm.DB
}

func NewPartidaRepository(db *gorm.DB) *PartidaRepository {
	return &PartidaRepository{db: db}
}

type partidaModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	QuinielaID   string     `gorm:"column:quiniela_id;index"`
	Ordem        int        `gorm:"column:ordem"`
	ExternoID    string     `gorm:"column:externo_id"`
	TimeCasa     string     `gorm:"column:time_casa"`
	TimeFora     string     `gorm:"column:time_fora"`
	LogoCasa     string     `gorm:"column:logo_casa"`
	LogoFora     string     `gorm:"column:logo_fora"`
	InicioEm     time.Time  `gorm:"column:inicio_em"`
	StatusJogo   string     `gorm:"column:status_jogo"`
	Estadio      string     `gorm:"column:estadio"`
	CompeticaoID string     `gorm:"column:competicao_id"`
	Competicao   string     `gorm:"column:competicao"`
	Rodada       string     `gorm:"column:rodada"`
	GolsCasa     *int       `gorm:"column:gols_casa"`
	GolsFora     *int       `gorm:"column:gols_fora"`
	Resultado    *string    `gorm:"column:resultado"`
	Valida       bool       `gorm:"column:valida"`
	CalculadoEm  *time.Time `gorm:"column:calculado_em"`
}

func (partidaModel) TableName() string {
	return "partidas"
}

func (m partidaModel) toDomain() domain.Partida {
	p := domain.Partida{
		ID:           domain.PartidaID(m.ID),
		QuinielaID:   domain.QuinielaID(m.QuinielaID),
		Ordem:        m.Ordem,
		ExternoID:    m.ExternoID,
		TimeCasa:     m.TimeCasa,
		TimeFora:     m.TimeFora,
		LogoCasa:     m.LogoCasa,
		LogoFora:     m.LogoFora,
		InicioEm:     m.InicioEm,
		StatusJogo:   m.StatusJogo,
		Estadio:      m.Estadio,
		CompeticaoID: m.CompeticaoID,
		Competicao:   m.Competicao,
		Rodada:       m.Rodada,
		GolsCasa:     m.GolsCasa,
		GolsFora:     m.GolsFora,
		Valida:       m.Valida,
		CalculadoEm:  m.CalculadoEm,
	}
	if m.Resultado != nil {
		r := domain.Resultado(*m.Resultado)
		p.Resultado = &r
	}
	return p
}

func fromDomainPartida(p domain.Partida) partidaModel {
	model := partidaModel{
		ID:           string(p.ID),
		QuinielaID:   string(p.QuinielaID),
		Ordem:        p.Ordem,
		ExternoID:    p.ExternoID,
		TimeCasa:     p.TimeCasa,
		TimeFora:     p.TimeFora,
		LogoCasa:     p.LogoCasa,
		LogoFora:     p.LogoFora,
		InicioEm:     p.InicioEm,
		StatusJogo:   p.StatusJogo,
		Estadio:      p.Estadio,
		CompeticaoID: p.CompeticaoID,
		Competicao:   p.Competicao,
		Rodada:       p.Rodada,
		GolsCasa:     p.GolsCasa,
		GolsFora:     p.GolsFora,
		Valida:       p.Valida,
		CalculadoEm:  p.CalculadoEm,
	}
	if p.Resultado != nil {
		r := string(*p.Resultado)
		model.Resultado = &r
	}
	return model
}

func (r *PartidaRepository) ListByQuiniela(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Partida, error) {
	var models []partidaModel
	if err := r.db.WithContext(ctx).
		Where("quiniela_id = ?", quinielaID).
		Order("ordem ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm partida: listar por quiniela: %w", err)
	}

	partidas := make([]domain.Partida, len(models))
	for i, model := range models {
		partidas[i] = model.toDomain()
	}
	return partidas, nil
}

// SalvarResultados grava todas as partidas numa transação: ou todos os resultados entram ou nenhum.
func (r *PartidaRepository) SalvarResultados(ctx context.Context, quinielaID domain.QuinielaID, partidas []domain.Partida) error {
	if len(partidas) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range partidas {
			model := fromDomainPartida(p)
			res := tx.Model(&partidaModel{}).
				Where("id = ? AND quiniela_id = ?", model.ID, quinielaID).
				Updates(map[string]any{
					"status_jogo":  model.StatusJogo,
					"gols_casa":    model.GolsCasa,
					"gols_fora":    model.GolsFora,
					"resultado":    model.Resultado,
					"valida":       model.Valida,
					"calculado_em": model.CalculadoEm,
				})
			if res.Error != nil {
				return fmt.Errorf("gorm partida: salvar resultado %s: %w", model.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("gorm partida: %s: %w", model.ID, domain.ErrNotFound)
			}
		}
		return nil
	})
}

var _ domain.PartidaRepository = (*PartidaRepository)(nil)
