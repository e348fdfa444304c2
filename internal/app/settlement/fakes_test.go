package settlement

import (
	"context"
	"errors"
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

type memQuinielaRepo struct {
	mu         sync.Mutex
	data       map[domain.QuinielaID]domain.Quiniela
	liberacoes int
	errLiberar error
}

func newMemQuinielaRepo(qs ...domain.Quiniela) *memQuinielaRepo {
	r := &memQuinielaRepo{data: make(map[domain.QuinielaID]domain.Quiniela)}
	for _, q := range qs {
		r.data[q.ID] = q
	}
	return r
}

func (r *memQuinielaRepo) Create(_ context.Context, q domain.Quiniela) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[q.ID] = q
	return nil
}

func (r *memQuinielaRepo) Update(_ context.Context, q domain.Quiniela) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[q.ID]; !ok {
		return domain.ErrNotFound
	}
	r.data[q.ID] = q
	return nil
}

func (r *memQuinielaRepo) FindByID(_ context.Context, id domain.QuinielaID) (domain.Quiniela, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok {
		return domain.Quiniela{}, domain.ErrNotFound
	}
	return q, nil
}

func (r *memQuinielaRepo) List(_ context.Context, _ bool) ([]domain.Quiniela, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lista []domain.Quiniela
	for _, q := range r.data {
		lista = append(lista, q)
	}
	return lista, nil
}

func (r *memQuinielaRepo) Delete(_ context.Context, id domain.QuinielaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func (r *memQuinielaRepo) AdquirirTrava(_ context.Context, id domain.QuinielaID, responsavel string, em time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	if q.Processando {
		return &domain.TravaError{Responsavel: q.ProcessadoPor, Desde: q.ProcessamentoEm}
	}
	q.Processando = true
	q.ProcessadoPor = responsavel
	q.ProcessamentoEm = &em
	r.data[id] = q
	return nil
}

func (r *memQuinielaRepo) LiberarTrava(_ context.Context, id domain.QuinielaID, em time.Time, finalizada bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liberacoes++
	if r.errLiberar != nil {
		return r.errLiberar
	}
	q, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	q.Processando = false
	q.ProcessadoPor = ""
	q.ProcessamentoEm = nil
	q.UltimoProcessoEm = &em
	if finalizada {
		q.Status = domain.StatusQuinielaFinalizada
	}
	r.data[id] = q
	return nil
}

func (r *memQuinielaRepo) AtualizarParticipantes(_ context.Context, id domain.QuinielaID, total int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.data[id]
	q.Participantes = total
	r.data[id] = q
	return nil
}

func (r *memQuinielaRepo) get(id domain.QuinielaID) domain.Quiniela {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[id]
}

type memPartidaRepo struct {
	mu      sync.Mutex
	porID   map[domain.QuinielaID][]domain.Partida
	salvas  int
	errSalv error
}

func newMemPartidaRepo() *memPartidaRepo {
	return &memPartidaRepo{porID: make(map[domain.QuinielaID][]domain.Partida)}
}

func (r *memPartidaRepo) ListByQuiniela(_ context.Context, quinielaID domain.QuinielaID) ([]domain.Partida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Partida(nil), r.porID[quinielaID]...), nil
}

func (r *memPartidaRepo) SalvarResultados(_ context.Context, quinielaID domain.QuinielaID, partidas []domain.Partida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errSalv != nil {
		return r.errSalv
	}
	r.salvas++
	atuais := r.porID[quinielaID]
	for _, nova := range partidas {
		for i := range atuais {
			if atuais[i].ID == nova.ID {
				atuais[i] = nova
			}
		}
	}
	return nil
}

func (r *memPartidaRepo) get(quinielaID domain.QuinielaID, id domain.PartidaID) domain.Partida {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.porID[quinielaID] {
		if p.ID == id {
			return p
		}
	}
	return domain.Partida{}
}

type memApostaRepo struct {
	mu       sync.Mutex
	lista    []domain.Aposta
	lotes    []int
	falharEm int
	errLote  error
}

func (r *memApostaRepo) Criar(_ context.Context, a domain.Aposta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lista = append(r.lista, a)
	return nil
}

func (r *memApostaRepo) Excluir(context.Context, domain.ApostaID) error {
	return errors.New("nao usado")
}

func (r *memApostaRepo) FindByID(_ context.Context, id domain.ApostaID) (domain.Aposta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.lista {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Aposta{}, domain.ErrNotFound
}

func (r *memApostaRepo) ExisteParaUsuario(context.Context, domain.QuinielaID, string) (bool, error) {
	return false, nil
}

func (r *memApostaRepo) ListByQuiniela(_ context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
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

func (r *memApostaRepo) ListByUsuario(context.Context, string) ([]domain.Aposta, error) {
	return nil, nil
}

func (r *memApostaRepo) Classificacao(ctx context.Context, quinielaID domain.QuinielaID) ([]domain.Aposta, error) {
	return r.ListByQuiniela(ctx, quinielaID)
}

func (r *memApostaRepo) ContarPorQuiniela(ctx context.Context, quinielaID domain.QuinielaID) (int64, error) {
	lista, _ := r.ListByQuiniela(ctx, quinielaID)
	return int64(len(lista)), nil
}

func (r *memApostaRepo) MarcarPago(context.Context, domain.ApostaID) error {
	return nil
}

func (r *memApostaRepo) AtualizarPontuacoes(_ context.Context, lote []domain.PontuacaoAposta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.falharEm > 0 && len(r.lotes)+1 == r.falharEm {
		return r.errLote
	}
	r.lotes = append(r.lotes, len(lote))
	for _, p := range lote {
		for i := range r.lista {
			if r.lista[i].ID == p.ApostaID {
				r.lista[i].Pontos = p.Pontos
				r.lista[i].Status = domain.ApostaFinalizada
			}
		}
	}
	return nil
}

type fakeProvedor struct {
	partidas map[string]domain.PartidaProvedor
	erros    map[string]error
}

func (f *fakeProvedor) BuscarPartidas(context.Context, domain.FiltroPartidas) ([]domain.Partida, error) {
	return nil, nil
}

func (f *fakeProvedor) BuscarPartida(_ context.Context, externoID string) (domain.PartidaProvedor, error) {
	if err, ok := f.erros[externoID]; ok {
		return domain.PartidaProvedor{}, err
	}
	return f.partidas[externoID], nil
}

type recordingFila struct {
	mu      sync.Mutex
	pedidos []domain.PedidoLiquidacao
}

func (f *recordingFila) Publicar(_ context.Context, pedido domain.PedidoLiquidacao) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pedidos = append(f.pedidos, pedido)
	return nil
}

func (f *recordingFila) Consumir(context.Context, func(context.Context, domain.PedidoLiquidacao) error) error {
	return nil
}

type memStatusStore struct {
	mu   sync.Mutex
	data map[domain.QuinielaID]domain.StatusLiquidacao
}

func (m *memStatusStore) Salvar(_ context.Context, status domain.StatusLiquidacao) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[domain.QuinielaID]domain.StatusLiquidacao)
	}
	m.data[status.QuinielaID] = status
	return nil
}

func (m *memStatusStore) Obter(_ context.Context, quinielaID domain.QuinielaID) (domain.StatusLiquidacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[quinielaID]
	if !ok {
		return domain.StatusLiquidacao{}, domain.ErrNotFound
	}
	return s, nil
}
