// Package evolution implements the genetic algorithm engine that
// evolves populations of trading agents: tournament selection,
// crossover, mutation, elitism and per-generation bookkeeping.
//
// The engine is strictly sequential across generations. The one
// parallel point is population evaluation, which fans out over a
// bounded worker pool and joins before selection starts. An Engine is
// not safe for concurrent use.
package evolution

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/darwinfi/evolve-go/pkg/agent"
	"github.com/darwinfi/evolve-go/pkg/errors"
	"github.com/darwinfi/evolve-go/pkg/logging"
)

// FitnessFunc scores an agent; higher is better. It must not mutate
// population membership. It is invoked once per agent per fitness
// staleness window (evaluation is memoized on the unset-fitness
// check).
type FitnessFunc func(*agent.Agent) float64

// Factory creates one initial agent: generation 0, no parents, unset
// fitness.
type Factory func() *agent.Agent

// Config contains the engine's fixed-at-construction parameters.
type Config struct {
	PopulationSize int     // N
	TournamentSize int     // k, 1 <= k <= N
	CrossoverRate  float64 // probability of crossover per offspring
	MutationRate   float64 // probability of mutating an offspring
	ElitismCount   int     // e, 0 <= e <= N
	Concurrency    int     // evaluation workers
	Seed           int64   // PRNG seed; 0 seeds from the clock
	FitnessFunc    FitnessFunc
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		PopulationSize: 100,
		TournamentSize: 5,
		CrossoverRate:  0.7,
		MutationRate:   0.1,
		ElitismCount:   2,
		Concurrency:    4,
	}
}

// Engine owns the current population and drives generation
// transitions.
type Engine struct {
	config            Config
	rng               *rand.Rand
	population        []*agent.Agent
	history           *History
	currentGeneration int
	evaluations       int
}

// NewEngine validates the configuration and creates an engine with its
// own seeded random source, so a fixed seed makes selection, crossover
// and mutation deterministic.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.PopulationSize < 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "population size must be positive"),
			errors.Fields{"population_size": config.PopulationSize})
	}
	if config.TournamentSize < 1 || config.TournamentSize > config.PopulationSize {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "tournament size must be in [1, population size]"),
			errors.Fields{"tournament_size": config.TournamentSize, "population_size": config.PopulationSize})
	}
	if config.ElitismCount < 0 || config.ElitismCount > config.PopulationSize {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "elitism count must be in [0, population size]"),
			errors.Fields{"elitism_count": config.ElitismCount, "population_size": config.PopulationSize})
	}
	if config.CrossoverRate < 0 || config.CrossoverRate > 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "crossover rate must be in [0, 1]"),
			errors.Fields{"crossover_rate": config.CrossoverRate})
	}
	if config.MutationRate < 0 || config.MutationRate > 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "mutation rate must be in [0, 1]"),
			errors.Fields{"mutation_rate": config.MutationRate})
	}

	cfg := *config
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		config:  cfg,
		rng:     rand.New(rand.NewSource(seed)),
		history: NewHistory(),
	}, nil
}

// InitializePopulation builds the initial population via the factory,
// resets the generation counter and clears the history.
func (e *Engine) InitializePopulation(factory Factory) error {
	if factory == nil {
		return errors.New(errors.InvalidInput, "agent factory is not defined")
	}

	population := make([]*agent.Agent, e.config.PopulationSize)
	for i := range population {
		population[i] = factory()
	}

	e.population = population
	e.currentGeneration = 0
	e.evaluations = 0
	e.history = NewHistory()

	logging.GetLogger().Info(context.Background(), "Initialized population with %d agents", e.config.PopulationSize)
	return nil
}

// EvaluatePopulation scores every agent whose fitness is unset.
// Already-scored agents are left untouched, so repeated calls are
// cheap. Evaluation fans out over a bounded worker pool; each agent's
// fitness is written by exactly one worker, and the pool joins before
// this returns.
func (e *Engine) EvaluatePopulation(ctx context.Context) error {
	logger := logging.GetLogger()

	if e.config.FitnessFunc == nil {
		return errors.New(errors.MissingFitnessFunction, "fitness function is not defined")
	}

	var pending []*agent.Agent
	for _, a := range e.population {
		if _, scored := a.Fitness(); !scored {
			pending = append(pending, a)
		}
	}

	if len(pending) > 0 {
		p := pool.New().WithMaxGoroutines(e.config.Concurrency)
		for _, a := range pending {
			a := a
			p.Go(func() {
				a.SetFitness(e.config.FitnessFunc(a))
			})
		}
		p.Wait()
		e.evaluations += len(pending)
	}

	best, worst, sum := 0.0, 0.0, 0.0
	for i, a := range e.population {
		f, _ := a.Fitness()
		if i == 0 || f > best {
			best = f
		}
		if i == 0 || f < worst {
			worst = f
		}
		sum += f
	}
	if n := len(e.population); n > 0 {
		logger.Debug(ctx, "Population evaluation - evaluated: %d, avg fitness: %.4f, best: %.4f, worst: %.4f",
			len(pending), sum/float64(n), best, worst)
	}

	return nil
}

// TournamentSelection draws TournamentSize distinct agents uniformly
// at random without replacement and returns the one with maximum
// fitness, ties going to the first encountered. Callers must evaluate
// the population first.
func (e *Engine) TournamentSelection() (*agent.Agent, error) {
	if len(e.population) == 0 {
		return nil, errors.New(errors.EmptyPopulation, "population is empty")
	}

	k := e.config.TournamentSize
	if k > len(e.population) {
		k = len(e.population)
	}
	if k == 1 {
		return e.population[e.rng.Intn(len(e.population))], nil
	}

	perm := e.rng.Perm(len(e.population))
	best := e.population[perm[0]]
	bestFitness, _ := best.Fitness()
	for _, idx := range perm[1:k] {
		contender := e.population[idx]
		if f, _ := contender.Fitness(); f > bestFitness {
			best = contender
			bestFitness = f
		}
	}

	return best, nil
}

// CreateNextGeneration performs one full generation transition:
// evaluate, carry over elites, fill the rest via tournament selection
// with crossover and mutation, replace the population wholesale and
// record the generation's statistics.
func (e *Engine) CreateNextGeneration(ctx context.Context) error {
	logger := logging.GetLogger()

	if len(e.population) == 0 {
		return errors.New(errors.EmptyPopulation, "population is empty")
	}

	if err := e.EvaluatePopulation(ctx); err != nil {
		return err
	}

	sorted := make([]*agent.Agent, len(e.population))
	copy(sorted, e.population)
	sort.SliceStable(sorted, func(i, j int) bool {
		fi, _ := sorted[i].Fitness()
		fj, _ := sorted[j].Fitness()
		return fi > fj
	})

	newPopulation := make([]*agent.Agent, 0, e.config.PopulationSize)

	// Elitism: the best agents carry over unchanged, fitness included.
	for _, elite := range sorted[:e.config.ElitismCount] {
		newPopulation = append(newPopulation, elite.Clone())
	}

	for len(newPopulation) < e.config.PopulationSize {
		parent1, err := e.TournamentSelection()
		if err != nil {
			return err
		}
		parent2, err := e.TournamentSelection()
		if err != nil {
			return err
		}

		var offspring *agent.Agent
		if e.rng.Float64() < e.config.CrossoverRate {
			offspring = agent.Crossover(e.rng, parent1, parent2)
		} else if e.rng.Float64() < 0.5 {
			offspring = parent1.Clone()
		} else {
			offspring = parent2.Clone()
		}

		if e.rng.Float64() < e.config.MutationRate {
			offspring.Mutate(e.rng)
		}

		newPopulation = append(newPopulation, offspring)
	}

	if len(newPopulation) > e.config.PopulationSize {
		newPopulation = newPopulation[:e.config.PopulationSize]
	}

	e.population = newPopulation
	e.currentGeneration++

	e.recordGenerationStats(ctx)

	logger.Info(ctx, "Created generation %d", e.currentGeneration)
	return nil
}

// recordGenerationStats appends the new population's fitness
// distribution to the history. Offspring start unscored, so the
// statistics cover the evaluated members (at minimum the elites); if
// nothing is scored yet the record is skipped.
func (e *Engine) recordGenerationStats(ctx context.Context) {
	var fitnesses []float64
	for _, a := range e.population {
		if f, scored := a.Fitness(); scored {
			fitnesses = append(fitnesses, f)
		}
	}

	if len(fitnesses) == 0 {
		logging.GetLogger().Warn(ctx, "No fitness values available to record generation stats")
		return
	}

	best, sum := fitnesses[0], 0.0
	for _, f := range fitnesses {
		if f > best {
			best = f
		}
		sum += f
	}
	avg := sum / float64(len(fitnesses))

	diversity := 0.0
	if len(fitnesses) > 1 {
		diversity = stddev(fitnesses)
	}

	e.history.RecordGeneration(e.currentGeneration, e.population, best, avg, diversity)
}

// Evolve runs the given number of generation transitions sequentially
// and returns the accumulated history. The context is only checked
// between generations; mid-generation cancellation is not a supported
// safepoint.
func (e *Engine) Evolve(ctx context.Context, generations int) (*History, error) {
	for i := 0; i < generations; i++ {
		if err := errors.CheckContext(ctx, "evolve"); err != nil {
			return e.history, err
		}
		if err := e.CreateNextGeneration(ctx); err != nil {
			return e.history, err
		}
	}
	return e.history, nil
}

// BestAgent evaluates the population and returns its highest-fitness
// member.
func (e *Engine) BestAgent(ctx context.Context) (*agent.Agent, error) {
	if len(e.population) == 0 {
		return nil, errors.New(errors.EmptyPopulation, "population is empty")
	}

	if err := e.EvaluatePopulation(ctx); err != nil {
		return nil, err
	}

	return bestScored(e.population), nil
}

// Population returns the current population slice membership. The
// population itself is replaced wholesale at each transition; callers
// must not grow or shrink it.
func (e *Engine) Population() []*agent.Agent {
	out := make([]*agent.Agent, len(e.population))
	copy(out, e.population)
	return out
}

// CurrentGeneration returns the number of completed transitions.
func (e *Engine) CurrentGeneration() int {
	return e.currentGeneration
}

// Evaluations returns the number of fitness function calls made since
// the population was last initialized. Memoization keeps this below
// one call per agent per generation: unmutated clones carry their
// parent's score.
func (e *Engine) Evaluations() int {
	return e.evaluations
}

// History returns the engine's generation ledger.
func (e *Engine) History() *History {
	return e.history
}
