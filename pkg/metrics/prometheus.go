package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	riskScore   *prometheus.GaugeVec
	scoredDays  *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered with the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskhub_asset_runs_total",
				Help: "Scoring runs per asset by outcome",
			},
			[]string{"asset", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskhub_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		riskScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskhub_risk_score",
				Help: "Latest risk score per asset (1-99)",
			},
			[]string{"asset"},
		),
		scoredDays: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskhub_scored_days",
				Help: "Number of scored days in the latest run",
			},
			[]string{"asset"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskhub_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
	}
}

// RecordRun counts one asset run with status ok or error.
func (r *Recorder) RecordRun(assetID, status string) {
	r.runsTotal.WithLabelValues(assetID, status).Inc()
}

func (r *Recorder) RecordRiskScore(assetID string, score float64) {
	r.riskScore.WithLabelValues(assetID).Set(score)
}

func (r *Recorder) RecordScoredDays(assetID string, days int) {
	r.scoredDays.WithLabelValues(assetID).Set(float64(days))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
