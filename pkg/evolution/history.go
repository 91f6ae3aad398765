package evolution

import (
	"time"

	"github.com/darwinfi/evolve-go/pkg/agent"
)

// GenerationRecord holds the aggregate statistics of one completed
// generation. Records are immutable once appended.
type GenerationRecord struct {
	Generation      int       `json:"generation"`
	Timestamp       time.Time `json:"timestamp"`
	BestFitness     float64   `json:"best_fitness"`
	AverageFitness  float64   `json:"average_fitness"`
	PopulationSize  int       `json:"population_size"`
	DiversityMetric float64   `json:"diversity_metric"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
}

// History is the append-only ledger of generation statistics plus a
// snapshot of each generation's best agent.
type History struct {
	startTime  time.Time
	records    []GenerationRecord
	bestAgents []*agent.Agent
}

// NewHistory creates an empty history anchored at the current time.
func NewHistory() *History {
	return &History{startTime: time.Now()}
}

// RecordGeneration appends a record for a completed generation and
// snapshots a clone of the population's best scored agent.
func (h *History) RecordGeneration(generation int, population []*agent.Agent, bestFitness, avgFitness, diversity float64) {
	now := time.Now()
	h.records = append(h.records, GenerationRecord{
		Generation:      generation,
		Timestamp:       now,
		BestFitness:     bestFitness,
		AverageFitness:  avgFitness,
		PopulationSize:  len(population),
		DiversityMetric: diversity,
		ElapsedSeconds:  now.Sub(h.startTime).Seconds(),
	})

	if best := bestScored(population); best != nil {
		h.bestAgents = append(h.bestAgents, best.Clone())
	}
}

// LatestStats returns the most recent generation record, if any.
func (h *History) LatestStats() (GenerationRecord, bool) {
	if len(h.records) == 0 {
		return GenerationRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns a copy of all generation records in append order.
func (h *History) Records() []GenerationRecord {
	out := make([]GenerationRecord, len(h.records))
	copy(out, h.records)
	return out
}

// BestAgentEver returns the highest-fitness agent across all
// snapshotted generation bests, or nil if nothing was recorded. With
// elitism enabled this is monotonically non-decreasing across
// generations.
func (h *History) BestAgentEver() *agent.Agent {
	return bestScored(h.bestAgents)
}

// BestAgents returns the per-generation best-agent timeline.
func (h *History) BestAgents() []*agent.Agent {
	out := make([]*agent.Agent, len(h.bestAgents))
	copy(out, h.bestAgents)
	return out
}

// bestScored returns the scored agent with maximum fitness, ties going
// to the first encountered. Unscored agents never win.
func bestScored(agents []*agent.Agent) *agent.Agent {
	var best *agent.Agent
	bestFitness := 0.0

	for _, a := range agents {
		f, scored := a.Fitness()
		if !scored {
			continue
		}
		if best == nil || f > bestFitness {
			best = a
			bestFitness = f
		}
	}
	return best
}
