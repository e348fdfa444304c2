package quinielas

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marcelojr/quiniela/internal/domain"
)

type staticClock struct {
	now time.Time
}

func (c *staticClock) Agora() time.Time {
	return c.now
}

type inMemoryQuinielaRepo struct {
	mu   sync.Mutex
	data map[domain.QuinielaID]domain.Quiniela
}

func newInMemoryQuinielaRepo() *inMemoryQuinielaRepo {
	return &inMemoryQuinielaRepo{data: make(map[domain.QuinielaID]domain.Quiniela)}
}

func (r *inMemoryQuinielaRepo) Create(_ context.Context, q domain.Quiniela) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[q.ID] = q
	return nil
}

func (r *inMemoryQuinielaRepo) Update(_ context.Context, q domain.Quiniela) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[q.ID]; !ok {
		return domain.ErrNotFound
	}
	r.data[q.ID] = q
	return nil
}

func (r *inMemoryQuinielaRepo) FindByID(_ context.Context, id domain.QuinielaID) (domain.Quiniela, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok {
		return domain.Quiniela{}, domain.ErrNotFound
	}
	return q, nil
}

func (r *inMemoryQuinielaRepo) List(_ context.Context, somenteAbertas bool) ([]domain.Quiniela, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lista []domain.Quiniela
	for _, q := range r.data {
		if somenteAbertas && q.Status != domain.StatusQuinielaAberta {
			continue
		}
		lista = append(lista, q)
	}
	sort.Slice(lista, func(i, j int) bool { return lista[i].ID < lista[j].ID })
	return lista, nil
}

func (r *inMemoryQuinielaRepo) Delete(_ context.Context, id domain.QuinielaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *inMemoryQuinielaRepo) AdquirirTrava(context.Context, domain.QuinielaID, string, time.Time) error {
	return nil
}

func (r *inMemoryQuinielaRepo) LiberarTrava(context.Context, domain.QuinielaID, time.Time, bool) error {
	return nil
}

func (r *inMemoryQuinielaRepo) AtualizarParticipantes(_ context.Context, id domain.QuinielaID, total int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	q.Participantes = total
	r.data[id] = q
	return nil
}

// ocuparVaga imita o incremento condicional do banco: falha quando a quiniela já está cheia.
func (r *inMemoryQuinielaRepo) ocuparVaga(id domain.QuinielaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	if q.MaxParticipantes > 0 && q.Participantes >= int64(q.MaxParticipantes) {
		return domain.ErrLotada
	}
	q.Participantes++
	r.data[id] = q
	return nil
}

func (r *inMemoryQuinielaRepo) incrementar(id domain.QuinielaID, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.data[id]
	q.Participantes += delta
	r.data[id] = q
}

// inMemoryApostaRepo imita o índice único e o contador mantido na mesma transação.
type inMemoryApostaRepo struct {
	mu        sync.Mutex
	lista     []domain.Aposta
	quinielas *inMemoryQuinielaRepo
}

func newInMemoryApostaRepo(quinielas *inMemoryQuinielaRepo) *inMemoryApostaRepo {
	return &inMemoryApostaRepo{quinielas: quinielas}
}

func (r *inMemoryApostaRepo) Criar(_ context.Context, a domain.Aposta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existente := range r.lista {
		if existente.QuinielaID == a.QuinielaID && existente.UsuarioID == a.UsuarioID {
			return domain.ErrAlreadyExists
		}
	}
	if err := r.quinielas.ocuparVaga(a.QuinielaID); err != nil {
		return err
	}
	r.lista = append(r.lista, a)
	return nil
}

func (r *inMemoryApostaRepo) Excluir(_ context.Context, id domain.ApostaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.lista {
		if a.ID == id {
			r.lista = append(r.lista[:i], r.lista[i+1:]...)
			r.quinielas.incrementar(a.QuinielaID, -1)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *inMemoryApostaRepo) FindByID(_ context.Context, id domain.ApostaID) (domain.Aposta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.lista {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Aposta{}, domain.ErrNotFound
}

func (r *inMemoryApostaRepo) ExisteParaUsuario(_ context.Context, quinielaID domain.QuinielaID, usuarioID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.lista {
		if a.QuinielaID == quinielaID && a.UsuarioID == usuarioID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryApostaRepo) ListByQuiniela(_ context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []domain.Aposta
	for _, a := range r.lista {
		if a.QuinielaID == quinielaID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *inMemoryApostaRepo) ListByUsuario(_ context.Context, usuarioID string) ([]domain.Aposta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []domain.Aposta
	for _, a := range r.lista {
		if a.UsuarioID == usuarioID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *inMemoryApostaRepo) Classificacao(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	return r.ListByQuiniela(ctx, quinielaID)
}

func (r *inMemoryApostaRepo) ContarPorQuiniela(ctx context.Context, quinielaID domain.QuinielaID) (int64, error) {
	lista, err := r.ListByQuiniela(ctx, quinielaID)
	return int64(len(lista)), err
}

func (r *inMemoryApostaRepo) MarcarPago(_ context.Context, id domain.ApostaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lista {
		if r.lista[i].ID == id {
			r.lista[i].StatusPagamento = domain.PagamentoPago
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *inMemoryApostaRepo) AtualizarPontuacoes(_ context.Context, lote []domain.PontuacaoAposta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range lote {
		for i := range r.lista {
			if r.lista[i].ID == p.ApostaID {
				r.lista[i].Pontos = p.Pontos
			}
		}
	}
	return nil
}

type inMemoryPagamentoRepo struct {
	cfg *domain.ConfigPagamento
}

func (r *inMemoryPagamentoRepo) Obter(context.Context) (domain.ConfigPagamento, error) {
	if r.cfg == nil {
		return domain.ConfigPagamento{}, domain.ErrNotFound
	}
	return *r.cfg, nil
}

func (r *inMemoryPagamentoRepo) Salvar(_ context.Context, cfg domain.ConfigPagamento) error {
	r.cfg = &cfg
	return nil
}

type contadorAntifraude struct {
	mu       sync.Mutex
	chaves   []string
	bloquear error
}

func (a *contadorAntifraude) Validar(_ context.Context, chave string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chaves = append(a.chaves, chave)
	return a.bloquear
}
