package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/marcelojr/quiniela/internal/platform/metrics"
)

type Recontador interface {
	RecontarTodas(ctx context.Context) (int, error)
}

// AgendarReconciliacao registra o recálculo periódico dos contadores de participantes.
// Execuções sobrepostas são reagendadas em vez de rodar em paralelo.
func AgendarReconciliacao(ctx context.Context, sched gocron.Scheduler, recontador Recontador, intervalo time.Duration, logger *slog.Logger) (gocron.Job, error) {
	return sched.NewJob(
		gocron.DurationJob(intervalo),
		gocron.NewTask(func() {
			Reconciliar(ctx, recontador, logger)
		}),
		gocron.WithName("reconciliacao-participantes"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}

func Reconciliar(ctx context.Context, recontador Recontador, logger *slog.Logger) {
	corrigidas, err := recontador.RecontarTodas(ctx)
	if err != nil {
		metrics.ObserveReconciliacao("erro")
		logger.Error("reconciliacao de participantes com falhas", "err", err, "corrigidas", corrigidas)
		return
	}
	metrics.ObserveReconciliacao("sucesso")
	if corrigidas > 0 {
		logger.Info("reconciliacao de participantes concluida", "corrigidas", corrigidas)
	}
}
