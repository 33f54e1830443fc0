package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	pipelineRunCounter    *prometheus.CounterVec
	pipelineTickHistogram *prometheus.HistogramVec
	depositOutcomeCounter *prometheus.CounterVec
	withdrawalCounter     *prometheus.CounterVec
	commissionCounter     *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		pipelineRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_pipeline_runs_total",
			Help: "Pipeline tick outcomes, including ticks skipped by the single-flight guard",
		}, []string{"pipeline", "result"})

		pipelineTickHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "settlement_pipeline_tick_seconds",
			Help:    "Duration of executed pipeline ticks",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline"})

		depositOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_deposit_outcomes_total",
			Help: "Deposit reconciliation outcomes",
		}, []string{"outcome"})

		withdrawalCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_withdrawal_outcomes_total",
			Help: "Withdrawal disbursement outcomes",
		}, []string{"outcome"})

		commissionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_commissions_total",
			Help: "Referral commissions credited, by chain level",
		}, []string{"level"})

		prometheus.MustRegister(
			pipelineRunCounter,
			pipelineTickHistogram,
			depositOutcomeCounter,
			withdrawalCounter,
			commissionCounter,
		)
	})
}

func IncrementPipelineRun(pipeline, result string) {
	if pipelineRunCounter == nil {
		return
	}
	pipelineRunCounter.WithLabelValues(pipeline, result).Inc()
}

func ObservePipelineTick(pipeline string, duration time.Duration) {
	if pipelineTickHistogram == nil {
		return
	}
	pipelineTickHistogram.WithLabelValues(pipeline).Observe(duration.Seconds())
}

func IncrementDepositOutcome(outcome string) {
	if depositOutcomeCounter == nil {
		return
	}
	depositOutcomeCounter.WithLabelValues(outcome).Inc()
}

func IncrementWithdrawalOutcome(outcome string) {
	if withdrawalCounter == nil {
		return
	}
	withdrawalCounter.WithLabelValues(outcome).Inc()
}

func IncrementCommission(level int) {
	if commissionCounter == nil {
		return
	}
	commissionCounter.WithLabelValues(strconv.Itoa(level)).Inc()
}
