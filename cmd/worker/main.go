// Worker que executa liquidações enfileiradas pela API e agenda a reconciliação de participantes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/quiniela/internal/app/quinielas"
	"github.com/marcelojr/quiniela/internal/app/settlement"
	"github.com/marcelojr/quiniela/internal/app/worker"
	"github.com/marcelojr/quiniela/internal/domain"
	"github.com/marcelojr/quiniela/internal/platform/antifraude"
	"github.com/marcelojr/quiniela/internal/platform/clock"
	"github.com/marcelojr/quiniela/internal/platform/config"
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

	redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	quinielaRepo := postgresstorage.NewQuinielaRepository(db)
	apostaRepo := postgresstorage.NewApostaRepository(db)
	fila := redisstorage.NewFila(redisClient, cfg.FilaLiquidacaoKey)
	status := redisstorage.NewStatusLiquidacaoStore(redisClient, cfg.StatusLiquidacaoPrefix, cfg.StatusLiquidacaoTTL)
	clockSystem := clock.NewSystemClock()
	checker := health.NewChecker(sqlDB, redisClient)

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	// O worker liquida inline: sem fila nem provedor, só aplica os placares do pedido.
	liquidacaoSvc := settlement.NewService(
		quinielaRepo,
		postgresstorage.NewPartidaRepository(db),
		apostaRepo,
		nil,
		nil,
		nil,
		clockSystem,
		logger.L(),
	)
	quinielaSvc := quinielas.NewService(
		quinielaRepo,
		apostaRepo,
		postgresstorage.NewConfigPagamentoRepository(db),
		antifraude.NewNoop(),
		clockSystem,
		ids.NewGenerator(),
		logger.L(),
	)

	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("falha ao criar agendador", "err", err)
	}
	if cfg.ReconciliacaoIntervalo > 0 {
		if _, err := worker.AgendarReconciliacao(ctx, sched, quinielaSvc, cfg.ReconciliacaoIntervalo, logger.L()); err != nil {
			logger.Fatal("falha ao agendar reconciliacao", "err", err)
		}
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Error("erro ao encerrar agendador", "err", err)
		}
	}()

	processor := worker.NewSettlementProcessor(liquidacaoSvc, status, clockSystem)

	logger.Info("worker iniciado, aguardando pedidos de liquidacao", "fila", cfg.FilaLiquidacaoKey)
	err = fila.Consumir(ctx, func(ctx context.Context, pedido domain.PedidoLiquidacao) error {
		// Falha de um pedido não derruba o consumo; o desfecho fica no status.
		if err := processor.Process(ctx, pedido); err != nil {
			logger.Error("erro ao processar liquidacao", "pedido", pedido.ID, "quiniela", pedido.QuinielaID, "err", err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker finalizado com erro", "err", err)
	}

	logger.Info("worker finalizado")
}
