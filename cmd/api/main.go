// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelojr/quiniela/internal/app/httpapi"
	"github.com/marcelojr/quiniela/internal/app/quinielas"
	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/antifraude"
	"github.com/marcelojr/quiniela/internal/platform/clock"
	"github.com/marcelojr/quiniela/internal/platform/config"
	"github.com/marcelojr/quiniela/internal/platform/footballapi"
	"github.com/marcelojr/quiniela/internal/platform/health"
	"github.com/marcelojr/quiniela/internal/platform/ids"
	"github.com/marcelojr/quiniela/internal/platform/logger"
	"github.com/marcelojr/quiniela/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/quiniela/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/quiniela/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Redis guarda antifraude, cache do provedor e a fila de liquidação.
	redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	quinielaRepo := postgresstorage.NewQuinielaRepository(db)
	partidaRepo := postgresstorage.NewPartidaRepository(db)
	apostaRepo := postgresstorage.NewApostaRepository(db)
	pagamentoRepo := postgresstorage.NewConfigPagamentoRepository(db)
	clockSystem := clock.NewSystemClock()

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	// Sem chave o provedor fica desligado e os placares vêm só do operador.
	var provedor domain.ProvedorPartidas
	if cfg.ProvedorAPIKey != "" {
		cache := redisstorage.NewCache(redisClient, cfg.ProvedorCachePrefix, cfg.ProvedorCacheTTL)
		provedor = footballapi.NewClient(cfg.ProvedorBaseURL, cfg.ProvedorAPIKey, &http.Client{Timeout: cfg.ProvedorTimeout}, cache, logger.L())
	} else {
		logger.Warn("provedor de partidas desabilitado: PROVEDOR_API_KEY vazio")
	}

	var (
		fila   domain.FilaLiquidacao
		status domain.StatusLiquidacaoStore
	)
	if cfg.LiquidacaoAssincrona {
		fila = redisstorage.NewFila(redisClient, cfg.FilaLiquidacaoKey)
		status = redisstorage.NewStatusLiquidacaoStore(redisClient, cfg.StatusLiquidacaoPrefix, cfg.StatusLiquidacaoTTL)
	}

	quinielaSvc := quinielas.NewService(
		quinielaRepo,
		apostaRepo,
		pagamentoRepo,
		antifraudeSvc,
		clockSystem,
		ids.NewGenerator(),
		logger.L(),
	)
	liquidacaoSvc := settlement.NewService(
		quinielaRepo,
		partidaRepo,
		apostaRepo,
		provedor,
		fila,
		status,
		clockSystem,
		logger.L(),
	)

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN vazio: rotas de administracao ficam bloqueadas")
	}

	checker := health.NewChecker(sqlDB, redisClient)
	api := httpapi.New(quinielaSvc, liquidacaoSvc, provedor, cfg.AdminToken, logger.L())

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           api.Router(checker.ReadyHandler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "liquidacao_assincrona", cfg.LiquidacaoAssincrona)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
