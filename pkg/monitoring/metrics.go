// Package monitoring exposes evolution run telemetry as Prometheus
// metrics. The engine itself stays free of I/O; drivers feed this
// from generation records.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darwinfi/evolve-go/pkg/evolution"
)

var (
	// Generation progress metrics
	currentGeneration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "darwinfi_current_generation",
			Help: "Index of the most recently completed generation",
		},
		[]string{"run"},
	)

	bestFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "darwinfi_best_fitness",
			Help: "Best fitness in the most recent generation",
		},
		[]string{"run"},
	)

	averageFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "darwinfi_average_fitness",
			Help: "Average fitness in the most recent generation",
		},
		[]string{"run"},
	)

	diversityMetric = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "darwinfi_fitness_diversity",
			Help: "Fitness standard deviation of the most recent generation",
		},
		[]string{"run"},
	)

	populationSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "darwinfi_population_size",
			Help: "Number of agents in the population",
		},
		[]string{"run"},
	)

	// Evaluation metrics
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darwinfi_evaluations_total",
			Help: "Total number of fitness evaluations performed",
		},
		[]string{"run"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(currentGeneration)
	prometheus.MustRegister(bestFitness)
	prometheus.MustRegister(averageFitness)
	prometheus.MustRegister(diversityMetric)
	prometheus.MustRegister(populationSize)
	prometheus.MustRegister(evaluationsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordGeneration updates the per-generation gauges from a record.
func RecordGeneration(run string, rec evolution.GenerationRecord) {
	currentGeneration.WithLabelValues(run).Set(float64(rec.Generation))
	bestFitness.WithLabelValues(run).Set(rec.BestFitness)
	averageFitness.WithLabelValues(run).Set(rec.AverageFitness)
	diversityMetric.WithLabelValues(run).Set(rec.DiversityMetric)
	populationSize.WithLabelValues(run).Set(float64(rec.PopulationSize))
}

// RecordEvaluations counts completed fitness evaluations.
func RecordEvaluations(run string, count int) {
	evaluationsTotal.WithLabelValues(run).Add(float64(count))
}
