package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/darwinfi/evolve-go/pkg/evolution"
)

func TestRecordGeneration(t *testing.T) {
	RecordGeneration("test-run", evolution.GenerationRecord{
		Generation:      4,
		Timestamp:       time.Now(),
		BestFitness:     12.5,
		AverageFitness:  8.0,
		PopulationSize:  20,
		DiversityMetric: 1.25,
	})

	assert.Equal(t, 4.0, testutil.ToFloat64(currentGeneration.WithLabelValues("test-run")))
	assert.Equal(t, 12.5, testutil.ToFloat64(bestFitness.WithLabelValues("test-run")))
	assert.Equal(t, 8.0, testutil.ToFloat64(averageFitness.WithLabelValues("test-run")))
	assert.Equal(t, 1.25, testutil.ToFloat64(diversityMetric.WithLabelValues("test-run")))
	assert.Equal(t, 20.0, testutil.ToFloat64(populationSize.WithLabelValues("test-run")))
}

func TestRecordEvaluations(t *testing.T) {
	RecordEvaluations("test-run-2", 10)
	RecordEvaluations("test-run-2", 5)

	assert.Equal(t, 15.0, testutil.ToFloat64(evaluationsTotal.WithLabelValues("test-run-2")))
}
