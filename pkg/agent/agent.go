// Package agent defines the evolvable trading agent entity and its
// genetic operators (mutation, crossover, cloning).
//
// An Agent wraps a named set of strategy parameters together with
// lineage metadata, performance metrics and a fitness value assigned
// by an external evaluator. The engine in pkg/evolution owns
// populations of these and drives generation transitions; everything
// here is population-agnostic.
package agent

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultMutationRate is the per-parameter mutation probability agents
// start with unless a factory overrides it.
const DefaultMutationRate = 0.05

// Metrics holds the performance measures an external evaluator fills
// in after backtesting an agent's strategy. The engine never writes
// these.
type Metrics struct {
	TotalReturn    float64 `json:"total_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	WinRate        float64 `json:"win_rate"`
	AvgProfitLoss  float64 `json:"avg_profit_loss"`
	TradesExecuted float64 `json:"trades_executed"`
}

// Agent is a single candidate solution: a strategy parameter set plus
// the bookkeeping the evolutionary engine needs.
type Agent struct {
	ID             string
	StrategyParams map[string]ParamValue
	Generation     int
	ParentIDs      []string
	Metrics        Metrics
	MutationRate   float64
	IsElite        bool // caller-managed annotation; the engine never sets it
	Active         bool
	CreatedAt      time.Time

	// fitness is unset until the owning evaluator scores the agent.
	fitness float64
	scored  bool
}

// New creates an agent with the given strategy parameters, generation
// index and lineage. The parameter map is copied.
func New(params map[string]ParamValue, generation int, parentIDs []string) *Agent {
	cp := make(map[string]ParamValue, len(params))
	for k, v := range params {
		cp[k] = v
	}

	ids := make([]string, len(parentIDs))
	copy(ids, parentIDs)

	return &Agent{
		ID:             uuid.New().String(),
		StrategyParams: cp,
		Generation:     generation,
		ParentIDs:      ids,
		MutationRate:   DefaultMutationRate,
		Active:         true,
		CreatedAt:      time.Now(),
	}
}

// Fitness returns the agent's fitness and whether it has been scored
// since the last operation that invalidated it.
func (a *Agent) Fitness() (float64, bool) {
	return a.fitness, a.scored
}

// SetFitness records the evaluator's score for this agent.
func (a *Agent) SetFitness(f float64) {
	a.fitness = f
	a.scored = true
}

// ResetFitness marks the agent as not yet scored.
func (a *Agent) ResetFitness() {
	a.fitness = 0
	a.scored = false
}

// Mutate perturbs each strategy parameter independently with
// probability equal to the agent's own mutation rate.
func (a *Agent) Mutate(rng *rand.Rand) {
	a.MutateRate(rng, a.MutationRate)
}

// MutateRate perturbs each strategy parameter independently with the
// given probability. Booleans flip; integers shift by a uniform offset
// in [-d, d] with d = max(1, round(0.1*|v|)); floats shift by a
// uniform offset in [-d, d] with d = 0.1*|v|. A mutation that changes
// at least one parameter invalidates the agent's fitness.
func (a *Agent) MutateRate(rng *rand.Rand, rate float64) {
	mutated := 0

	for _, key := range sortedKeys(a.StrategyParams) {
		if rng.Float64() >= rate {
			continue
		}

		val := a.StrategyParams[key]
		switch val.Kind {
		case KindBool:
			a.StrategyParams[key] = BoolValue(!val.Bool)
		case KindInt:
			d := int64(math.Max(1, math.Round(0.1*math.Abs(float64(val.Int)))))
			offset := rng.Int63n(2*d+1) - d
			a.StrategyParams[key] = IntValue(val.Int + offset)
		case KindFloat:
			d := 0.1 * math.Abs(val.Float)
			offset := (rng.Float64()*2 - 1) * d
			a.StrategyParams[key] = FloatValue(val.Float + offset)
		default:
			continue
		}
		mutated++
	}

	if mutated > 0 {
		a.ResetFitness()
	}
}

// Crossover combines two parents into a child. The child's parameter
// key set is the union of both parents'; shared keys take either
// parent's value with equal probability, keys present in only one
// parent take that parent's value. The child starts unscored with
// zeroed metrics and a mutation rate averaged from its parents.
func Crossover(rng *rand.Rand, a, b *Agent) *Agent {
	params := make(map[string]ParamValue, len(a.StrategyParams))

	for _, key := range sortedKeys(a.StrategyParams) {
		av := a.StrategyParams[key]
		if bv, shared := b.StrategyParams[key]; shared {
			if rng.Float64() < 0.5 {
				params[key] = av
			} else {
				params[key] = bv
			}
		} else {
			params[key] = av
		}
	}
	for key, bv := range b.StrategyParams {
		if _, shared := a.StrategyParams[key]; !shared {
			params[key] = bv
		}
	}

	gen := a.Generation
	if b.Generation > gen {
		gen = b.Generation
	}

	child := New(params, gen+1, []string{a.ID, b.ID})
	child.MutationRate = (a.MutationRate + b.MutationRate) / 2
	return child
}

// Clone returns a field-wise deep copy of the agent under a fresh
// identifier. Fitness, metrics and lineage are carried over
// unchanged, which is what elitism relies on.
func (a *Agent) Clone() *Agent {
	params := make(map[string]ParamValue, len(a.StrategyParams))
	for k, v := range a.StrategyParams {
		params[k] = v
	}

	parentIDs := make([]string, len(a.ParentIDs))
	copy(parentIDs, a.ParentIDs)

	return &Agent{
		ID:             uuid.New().String(),
		StrategyParams: params,
		Generation:     a.Generation,
		ParentIDs:      parentIDs,
		Metrics:        a.Metrics,
		MutationRate:   a.MutationRate,
		IsElite:        a.IsElite,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
		fitness:        a.fitness,
		scored:         a.scored,
	}
}

func (a *Agent) String() string {
	if a.scored {
		return fmt.Sprintf("Agent(id=%s, generation=%d, fitness=%.4f)", a.ID, a.Generation, a.fitness)
	}
	return fmt.Sprintf("Agent(id=%s, generation=%d, fitness=unset)", a.ID, a.Generation)
}

// sortedKeys fixes the traversal order so that seeded runs draw
// random numbers in a reproducible sequence.
func sortedKeys(params map[string]ParamValue) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
