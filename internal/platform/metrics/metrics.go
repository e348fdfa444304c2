package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apostaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiniela_aposta_requests_total",
		Help: "Total de envios de aposta recebidos",
	}, []string{"status"})

	liquidacoesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiniela_liquidacoes_total",
		Help: "Total de liquidacoes executadas por desfecho",
	}, []string{"status"})

	apostasPontuadasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiniela_apostas_pontuadas_total",
		Help: "Total de apostas pontuadas em liquidacoes",
	})

	travaConflitosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiniela_trava_conflitos_total",
		Help: "Tentativas de liquidacao recusadas por trava ativa",
	})

	liquidacaoDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiniela_liquidacao_duration_seconds",
		Help:    "Tempo total de uma liquidacao",
		Buckets: prometheus.DefBuckets,
	})

	provedorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiniela_provedor_requests_total",
		Help: "Consultas ao provedor de partidas por resultado (hit, miss, erro)",
	}, []string{"resultado"})

	reconciliacoesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiniela_reconciliacoes_total",
		Help: "Execucoes do recalculo agendado de participantes",
	}, []string{"status"})
)

func ObserveApostaRequest(status string) {
	apostaRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveLiquidacao(status string, seconds float64) {
	liquidacoesTotal.WithLabelValues(status).Inc()
	liquidacaoDuration.Observe(seconds)
}

func AddApostasPontuadas(n int) {
	apostasPontuadasTotal.Add(float64(n))
}

func IncTravaConflito() {
	travaConflitosTotal.Inc()
}

func ObserveProvedor(resultado string) {
	provedorRequestsTotal.WithLabelValues(resultado).Inc()
}

func ObserveReconciliacao(status string) {
	reconciliacoesTotal.WithLabelValues(status).Inc()
}
