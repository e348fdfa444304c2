// Pacote footballapi consulta o provedor de dados de partidas (formato API-Football v3).
package footballapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/metrics"
)

const headerChave = "x-apisports-key"

// tamanhoMaximoResposta limita o corpo lido do provedor e, por consequência, o que vai para o cache.
const tamanhoMaximoResposta = 4 << 20

var ErrRespostaInvalida = errors.New("footballapi: resposta invalida do provedor")

// Client busca partidas no provedor; respostas 2xx ficam em cache pela URL completa.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   domain.CacheRespostas
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, cache domain.CacheRespostas, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		cache:   cache,
		logger:  logger,
	}
}

type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Response []fixtureDTO    `json:"response"`
}

type fixtureDTO struct {
	Fixture struct {
		ID   int64  `json:"id"`
		Date string `json:"date"`
		Venue struct {
			Name string `json:"name"`
		} `json:"venue"`
		Status struct {
			Short string `json:"short"`
			Long  string `json:"long"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Round string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home timeDTO `json:"home"`
		Away timeDTO `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type timeDTO struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

func (f fixtureDTO) toPartida() domain.Partida {
	p := domain.Partida{
		ExternoID:    strconv.FormatInt(f.Fixture.ID, 10),
		TimeCasa:     f.Teams.Home.Name,
		TimeFora:     f.Teams.Away.Name,
		LogoCasa:     f.Teams.Home.Logo,
		LogoFora:     f.Teams.Away.Logo,
		StatusJogo:   f.Fixture.Status.Short,
		Estadio:      f.Fixture.Venue.Name,
		CompeticaoID: strconv.FormatInt(f.League.ID, 10),
		Competicao:   f.League.Name,
		Rodada:       f.League.Round,
		GolsCasa:     f.Goals.Home,
		GolsFora:     f.Goals.Away,
	}
	if inicio, err := time.Parse(time.RFC3339, f.Fixture.Date); err == nil {
		p.InicioEm = inicio.UTC()
	}
	return p
}

func (f fixtureDTO) placar() domain.Placar {
	return domain.Placar{
		Casa:   gols(f.Goals.Home),
		Fora:   gols(f.Goals.Away),
		Status: f.Fixture.Status.Short,
	}
}

func gols(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// BuscarPartidas lista partidas pelos filtros informados; filtros vazios não entram na query.
func (c *Client) BuscarPartidas(ctx context.Context, filtro domain.FiltroPartidas) ([]domain.Partida, error) {
	q := url.Values{}
	adicionar(q, "league", filtro.Liga)
	adicionar(q, "season", filtro.Temporada)
	adicionar(q, "round", filtro.Rodada)
	adicionar(q, "from", filtro.De)
	adicionar(q, "to", filtro.Ate)

	fixtures, err := c.fixtures(ctx, q)
	if err != nil {
		return nil, err
	}

	partidas := make([]domain.Partida, len(fixtures))
	for i, f := range fixtures {
		partidas[i] = f.toPartida()
	}
	return partidas, nil
}

func (c *Client) BuscarPartida(ctx context.Context, externoID string) (domain.PartidaProvedor, error) {
	fixtures, err := c.fixtures(ctx, url.Values{"id": []string{externoID}})
	if err != nil {
		return domain.PartidaProvedor{}, err
	}
	if len(fixtures) == 0 {
		return domain.PartidaProvedor{}, fmt.Errorf("footballapi: partida %s: %w", externoID, domain.ErrNotFound)
	}
	return domain.PartidaProvedor{
		Partida: fixtures[0].toPartida(),
		Placar:  fixtures[0].placar(),
	}, nil
}

func adicionar(q url.Values, chave, valor string) {
	if v := strings.TrimSpace(valor); v != "" {
		q.Set(chave, v)
	}
}

func (c *Client) fixtures(ctx context.Context, q url.Values) ([]fixtureDTO, error) {
	endereco := c.baseURL + "/fixtures"
	if len(q) > 0 {
		endereco += "?" + q.Encode()
	}

	corpo, doCache, err := c.get(ctx, endereco)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(corpo, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespostaInvalida, err)
	}
	if temErros(env.Errors) {
		return nil, fmt.Errorf("%w: %s", ErrRespostaInvalida, string(env.Errors))
	}

	// Só respostas válidas vão para o cache.
	if !doCache && c.cache != nil {
		if err := c.cache.Guardar(ctx, endereco, corpo); err != nil {
			c.logger.Warn("falha ao guardar resposta do provedor em cache", "erro", err)
		}
	}
	return env.Response, nil
}

// temErros trata [] e {} como ausência de erro; o provedor usa os dois formatos.
func temErros(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "[]", "{}", "null":
		return false
	}
	return true
}

func (c *Client) get(ctx context.Context, endereco string) ([]byte, bool, error) {
	if c.cache != nil {
		if corpo, ok, err := c.cache.Obter(ctx, endereco); err != nil {
			c.logger.Warn("cache do provedor indisponivel", "erro", err)
		} else if ok {
			metrics.ObserveProvedor("cache")
			return corpo, true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endereco, nil)
	if err != nil {
		return nil, false, fmt.Errorf("footballapi: montar requisicao: %w", err)
	}
	req.Header.Set(headerChave, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveProvedor("erro")
		return nil, false, fmt.Errorf("footballapi: requisicao: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	corpo, err := io.ReadAll(io.LimitReader(resp.Body, tamanhoMaximoResposta+1))
	if err != nil {
		metrics.ObserveProvedor("erro")
		return nil, false, fmt.Errorf("footballapi: ler resposta: %w", err)
	}
	if len(corpo) > tamanhoMaximoResposta {
		metrics.ObserveProvedor("erro")
		return nil, false, fmt.Errorf("%w: corpo acima de %d bytes", ErrRespostaInvalida, tamanhoMaximoResposta)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveProvedor("erro")
		return nil, false, fmt.Errorf("footballapi: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}
	metrics.ObserveProvedor("sucesso")
	return corpo, false, nil
}

var _ domain.ProvedorPartidas = (*Client)(nil)
