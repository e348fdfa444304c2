package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/quiniela/internal/domain"
)

// QuinielaRepository mapeia o agregado quiniela + partidas para tabelas GORM.
type QuinielaRepository struct {
	db *gorm.DB
}

func NewQuinielaRepository(db *gorm.DB) *QuinielaRepository {
	return &QuinielaRepository{db: db}
}

type quinielaModel struct {
	ID               string         `gorm:"column:id;primaryKey"`
	Titulo           string         `gorm:"column:titulo"`
	Tipo             string         `gorm:"column:tipo"`
	PrecoBase        float64        `gorm:"column:preco_base"`
	Premio           float64        `gorm:"column:premio"`
	FechaEm          time.Time      `gorm:"column:fecha_em"`
	Descricao        string         `gorm:"column:descricao"`
	MaxParticipantes int            `gorm:"column:max_participantes"`
	Status           string         `gorm:"column:status"`
	Participantes    int64          `gorm:"column:participantes"`
	Temporada        string         `gorm:"column:temporada"`
	MultiCompeticao  bool           `gorm:"column:multi_competicao"`
	Processando      bool           `gorm:"column:is_processing"`
	ProcessadoPor    string         `gorm:"column:processing_by"`
	ProcessamentoEm  *time.Time     `gorm:"column:processing_started_at"`
	UltimoProcessoEm *time.Time     `gorm:"column:last_processed_at"`
	CriadoEm         time.Time      `gorm:"column:criado_em"`
	AtualizadoEm     time.Time      `gorm:"column:atualizado_em"`
	Partidas         []partidaModel `gorm:"foreignKey:QuinielaID;references:ID"`
}

func (quinielaModel) TableName() string {
	return "quinielas"
}

func (m quinielaModel) toDomain() domain.Quiniela {
	q := domain.Quiniela{
		ID:               domain.QuinielaID(m.ID),
		Titulo:           m.Titulo,
		Tipo:             domain.TipoQuiniela(m.Tipo),
		PrecoBase:        m.PrecoBase,
		Premio:           m.Premio,
		FechaEm:          m.FechaEm,
		Descricao:        m.Descricao,
		MaxParticipantes: m.MaxParticipantes,
		Status:           domain.StatusQuiniela(m.Status),
		Participantes:    m.Participantes,
		Temporada:        m.Temporada,
		MultiCompeticao:  m.MultiCompeticao,
		Processando:      m.Processando,
		ProcessadoPor:    m.ProcessadoPor,
		ProcessamentoEm:  m.ProcessamentoEm,
		UltimoProcessoEm: m.UltimoProcessoEm,
		CriadoEm:         m.CriadoEm,
		AtualizadoEm:     m.AtualizadoEm,
	}

	if len(m.Partidas) > 0 {
		q.Partidas = make([]domain.Partida, len(m.Partidas))
		for i, p := range m.Partidas {
			q.Partidas[i] = p.toDomain()
		}
	}
	return q
}

func fromDomainQuiniela(q domain.Quiniela) quinielaModel {
	model := quinielaModel{
		ID:               string(q.ID),
		Titulo:           q.Titulo,
		Tipo:             string(q.Tipo),
		PrecoBase:        q.PrecoBase,
		Premio:           q.Premio,
		FechaEm:          q.FechaEm,
		Descricao:        q.Descricao,
		MaxParticipantes: q.MaxParticipantes,
		Status:           string(q.Status),
		Participantes:    q.Participantes,
		Temporada:        q.Temporada,
		MultiCompeticao:  q.MultiCompeticao,
		Processando:      q.Processando,
		ProcessadoPor:    q.ProcessadoPor,
		ProcessamentoEm:  q.ProcessamentoEm,
		UltimoProcessoEm: q.UltimoProcessoEm,
		CriadoEm:         q.CriadoEm,
		AtualizadoEm:     q.AtualizadoEm,
	}

	if len(q.Partidas) > 0 {
		model.Partidas = make([]partidaModel, len(q.Partidas))
		for i, p := range q.Partidas {
			if p.QuinielaID == "" {
				p.QuinielaID = q.ID
			}
			model.Partidas[i] = fromDomainPartida(p)
		}
	}
	return model
}

func ordenarPartidas(db *gorm.DB) *gorm.DB {
	return db.Order("ordem ASC")
}

// Create grava a quiniela e suas partidas numa única transação.
func (r *QuinielaRepository) Create(ctx context.Context, q domain.Quiniela) error {
	model := fromDomainQuiniela(q)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("gorm quiniela: inserir: %w", err)
	}
	return nil
}

// Update altera apenas os campos editáveis pelo admin; trava e contador têm operações próprias.
func (r *QuinielaRepository) Update(ctx context.Context, q domain.Quiniela) error {
	model := fromDomainQuiniela(q)
	res := r.db.WithContext(ctx).Model(&quinielaModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"titulo":            model.Titulo,
			"tipo":              model.Tipo,
			"preco_base":        model.PrecoBase,
			"premio":            model.Premio,
			"fecha_em":          model.FechaEm,
			"descricao":         model.Descricao,
			"max_participantes": model.MaxParticipantes,
			"status":            model.Status,
			"temporada":         model.Temporada,
			"multi_competicao":  model.MultiCompeticao,
			"atualizado_em":     model.AtualizadoEm,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm quiniela: atualizar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *QuinielaRepository) FindByID(ctx context.Context, id domain.QuinielaID) (domain.Quiniela, error) {
	var model quinielaModel
	if err := r.db.WithContext(ctx).
		Preload("Partidas", ordenarPartidas).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Quiniela{}, domain.ErrNotFound
		}
		return domain.Quiniela{}, fmt.Errorf("gorm quiniela: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *QuinielaRepository) List(ctx context.Context, somenteAbertas bool) ([]domain.Quiniela, error) {
	query := r.db.WithContext(ctx).Preload("Partidas", ordenarPartidas)
	if somenteAbertas {
		query = query.Where("status = ?", string(domain.StatusQuinielaAberta))
	}

	var models []quinielaModel
	if err := query.Order("fecha_em ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm quiniela: listar: %w", err)
	}

	result := make([]domain.Quiniela, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

// Delete remove apostas, partidas e a quiniela na mesma transação para não deixar órfãos.
func (r *QuinielaRepository) Delete(ctx context.Context, id domain.QuinielaID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiniela_id = ?", id).Delete(&apostaModel{}).Error; err != nil {
			return fmt.Errorf("gorm quiniela: excluir apostas: %w", err)
		}
		if err := tx.Where("quiniela_id = ?", id).Delete(&partidaModel{}).Error; err != nil {
			return fmt.Errorf("gorm quiniela: excluir partidas: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&quinielaModel{})
		if res.Error != nil {
			return fmt.Errorf("gorm quiniela: excluir: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// AdquirirTrava usa um UPDATE condicional; só uma execução concorrente consegue virar a flag.
func (r *QuinielaRepository) AdquirirTrava(ctx context.Context, id domain.QuinielaID, responsavel string, em time.Time) error {
	res := r.db.WithContext(ctx).Model(&quinielaModel{}).
		Where("id = ? AND is_processing = ?", id, false).
		Updates(map[string]any{
			"is_processing":         true,
			"processing_by":         responsavel,
			"processing_started_at": em,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm quiniela: adquirir trava: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var atual quinielaModel
	if err := r.db.WithContext(ctx).
		Select("id", "processing_by", "processing_started_at").
		First(&atual, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("gorm quiniela: ler trava: %w", err)
	}
	return &domain.TravaError{Responsavel: atual.ProcessadoPor, Desde: atual.ProcessamentoEm}
}

func (r *QuinielaRepository) LiberarTrava(ctx context.Context, id domain.QuinielaID, em time.Time, finalizada bool) error {
	campos := map[string]any{
		"is_processing":         false,
		"processing_by":         "",
		"processing_started_at": nil,
		"last_processed_at":     em,
	}
	if finalizada {
		campos["status"] = string(domain.StatusQuinielaFinalizada)
	}

	res := r.db.WithContext(ctx).Model(&quinielaModel{}).Where("id = ?", id).Updates(campos)
	if res.Error != nil {
		return fmt.Errorf("gorm quiniela: liberar trava: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *QuinielaRepository) AtualizarParticipantes(ctx context.Context, id domain.QuinielaID, total int64) error {
	res := r.db.WithContext(ctx).Model(&quinielaModel{}).Where("id = ?", id).Update("participantes", total)
	if res.Error != nil {
		return fmt.Errorf("gorm quiniela: atualizar participantes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.QuinielaRepository = (*QuinielaRepository)(nil)
