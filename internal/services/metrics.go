package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	projectionsTotal *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	trainingsTotal   *prometheus.CounterVec
	trainingDuration *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		projectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projections_total",
			Help: "Projections served by source and recommendation.",
		}, []string{"source", "recommendation"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projection_fallbacks_total",
			Help: "Projections that fell back to a simpler source, by reason.",
		}, []string{"reason"}),
		trainingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "model_trainings_total",
			Help: "Model training runs by stat type and outcome.",
		}, []string{"stat_type", "outcome"}),
		trainingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Duration of a single model training run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stat_type"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	reg.MustRegister(
		m.projectionsTotal,
		m.fallbacksTotal,
		m.trainingsTotal,
		m.trainingDuration,
		m.breakerState,
	)
	return m
}

func (m *Metrics) Projection(source, recommendation string) {
	if m == nil {
		return
	}
	m.projectionsTotal.WithLabelValues(source, recommendation).Inc()
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) Training(statType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.trainingsTotal.WithLabelValues(statType, outcome).Inc()
	m.trainingDuration.WithLabelValues(statType).Observe(duration.Seconds())
}

func (m *Metrics) BreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(target).Set(state)
}
