package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/facet/pkg/domain"
)

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	Changes      *prometheus.CounterVec
	Commits      *prometheus.CounterVec
	Calculations *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	Iterations   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facet_attribute_changes_total",
				Help: "Total number of attribute changes",
			},
			[]string{"model", "attribute"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facet_attribute_commits_total",
				Help: "Total number of attribute commits",
			},
			[]string{"model", "branch"},
		),
		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facet_calculations_total",
				Help: "Total number of settled recalculation passes",
			},
			[]string{"model", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facet_calculation_duration_seconds",
				Help:    "Duration of recalculation passes",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"model"},
		),
		Iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facet_calculation_iterations",
				Help:    "Sweeps needed to reach a fixed point",
				Buckets: prometheus.LinearBuckets(1, 1, 8),
			},
			[]string{"model"},
		),
	}
	for _, c := range []prometheus.Collector{m.Changes, m.Commits, m.Calculations, m.Duration, m.Iterations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChange: func(e *domain.ChangeEvent) {
			m.Changes.WithLabelValues(e.Model, e.Attribute).Inc()
		},
		OnCommit: func(e *domain.CommitEvent) {
			m.Commits.WithLabelValues(e.Model, e.Branch).Inc()
		},
		OnCalculate: func(e *domain.CalculateEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Calculations.WithLabelValues(e.Model, result).Inc()
			m.Duration.WithLabelValues(e.Model).Observe(e.Duration.Seconds())
			m.Iterations.WithLabelValues(e.Model).Observe(float64(e.Iterations))
		},
	}
}
