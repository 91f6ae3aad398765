package evolution

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DiversityMetrics summarizes the spread of the current population's
// fitness values, used to gauge convergence and stagnation.
type DiversityMetrics struct {
	FitnessStdDev float64 `json:"fitness_std"`
	FitnessRange  float64 `json:"fitness_range"`
	FitnessMean   float64 `json:"fitness_mean"`
	FitnessMedian float64 `json:"fitness_median"`
}

// DiversityMetrics computes fitness spread statistics over the scored
// members of the current population. Populations smaller than 2 yield
// the zero value rather than an error.
func (e *Engine) DiversityMetrics() DiversityMetrics {
	if len(e.population) < 2 {
		return DiversityMetrics{}
	}

	var fitnesses []float64
	for _, a := range e.population {
		if f, scored := a.Fitness(); scored {
			fitnesses = append(fitnesses, f)
		}
	}
	if len(fitnesses) < 2 {
		return DiversityMetrics{}
	}

	sorted := make([]float64, len(fitnesses))
	copy(sorted, fitnesses)
	sort.Float64s(sorted)

	return DiversityMetrics{
		FitnessStdDev: stddev(fitnesses),
		FitnessRange:  sorted[len(sorted)-1] - sorted[0],
		FitnessMean:   stat.Mean(fitnesses, nil),
		FitnessMedian: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

func stddev(xs []float64) float64 {
	return stat.StdDev(xs, nil)
}
