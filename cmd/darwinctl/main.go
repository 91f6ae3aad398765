// darwinctl runs an evolution experiment from a YAML configuration,
// prints the generation history and optionally persists the run and
// serves Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/darwinfi/evolve-go/pkg/agent"
	"github.com/darwinfi/evolve-go/pkg/config"
	"github.com/darwinfi/evolve-go/pkg/evolution"
	"github.com/darwinfi/evolve-go/pkg/logging"
	"github.com/darwinfi/evolve-go/pkg/monitoring"
	"github.com/darwinfi/evolve-go/pkg/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file (defaults apply when empty)")
		envFile     = flag.String("env", ".env", "Path to .env file")
		generations = flag.Int("gens", 0, "Override the configured number of generations")
		seed        = flag.Int64("seed", 0, "Override the configured PRNG seed")
	)
	flag.Parse()

	// Optional .env; absence is not an error.
	if err := godotenv.Load(*envFile); err == nil {
		fmt.Printf("Loaded environment from %s\n", *envFile)
	}

	manager := config.NewManager(*configPath)
	if *configPath != "" {
		if err := manager.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg := manager.Get()

	if *generations > 0 {
		cfg.Evolution.Generations = *generations
	}
	if *seed != 0 {
		cfg.Evolution.Seed = *seed
	}
	if path := os.Getenv("DARWINFI_DB_PATH"); path != "" {
		cfg.Storage.Enabled = true
		cfg.Storage.Path = path
	}

	setupLogging(cfg)
	ctx := context.Background()

	if err := run(ctx, cfg); err != nil {
		logging.GetLogger().Error(ctx, "run failed: %v", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	outputs := []logging.Output{
		logging.NewConsoleOutput(true, logging.WithColor(cfg.Logging.UseColors)),
	}
	if cfg.Logging.FilePath != "" {
		if fileOut, err := logging.NewFileOutput(cfg.Logging.FilePath); err == nil {
			outputs = append(outputs, fileOut)
		} else {
			fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		}
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  outputs,
	}))
}

func run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.New().String()[:8]
	logger := logging.GetLogger()
	logger.Info(ctx, "Starting evolution run %s: population=%d, generations=%d",
		runID, cfg.Evolution.PopulationSize, cfg.Evolution.Generations)

	engine, err := evolution.NewEngine(&evolution.Config{
		PopulationSize: cfg.Evolution.PopulationSize,
		TournamentSize: cfg.Evolution.TournamentSize,
		CrossoverRate:  cfg.Evolution.CrossoverRate,
		MutationRate:   cfg.Evolution.MutationRate,
		ElitismCount:   cfg.Evolution.ElitismCount,
		Concurrency:    cfg.Evolution.Concurrency,
		Seed:           cfg.Evolution.Seed,
		FitnessFunc:    syntheticFitness,
	})
	if err != nil {
		return err
	}

	factoryRng := rand.New(rand.NewSource(cfg.Evolution.Seed + 1))
	if err := engine.InitializePopulation(momentumFactory(factoryRng)); err != nil {
		return err
	}

	if cfg.Monitoring.Enabled {
		http.Handle("/metrics", monitoring.NewMetricsHandler())
		go func() {
			if err := http.ListenAndServe(cfg.Monitoring.Addr, nil); err != nil {
				logger.Warn(ctx, "metrics server stopped: %v", err)
			}
		}()
		logger.Info(ctx, "Serving metrics on %s", cfg.Monitoring.Addr)
	}

	// Run generation by generation so telemetry tracks progress.
	evaluated := 0
	for g := 0; g < cfg.Evolution.Generations; g++ {
		if err := engine.CreateNextGeneration(ctx); err != nil {
			return err
		}
		if rec, ok := engine.History().LatestStats(); ok {
			monitoring.RecordGeneration(runID, rec)
		}
		monitoring.RecordEvaluations(runID, engine.Evaluations()-evaluated)
		evaluated = engine.Evaluations()
	}

	printHistory(engine.History())

	best, err := engine.BestAgent(ctx)
	if err != nil {
		return err
	}
	printBestAgent(best)

	if cfg.Storage.Enabled {
		s, err := store.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SaveHistory(ctx, engine.History()); err != nil {
			return err
		}
		if err := s.SaveAgent(ctx, best.Snapshot()); err != nil {
			return err
		}
		logger.Info(ctx, "Persisted run to %s", cfg.Storage.Path)
	}

	return nil
}

func printHistory(history *evolution.History) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("GENERATION HISTORY")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Gen", "Best", "Avg", "Diversity", "Pop", "Elapsed (s)"})
	for _, rec := range history.Records() {
		t.AppendRow(table.Row{
			rec.Generation,
			fmt.Sprintf("%.4f", rec.BestFitness),
			fmt.Sprintf("%.4f", rec.AverageFitness),
			fmt.Sprintf("%.4f", rec.DiversityMetric),
			rec.PopulationSize,
			fmt.Sprintf("%.2f", rec.ElapsedSeconds),
		})
	}

	t.Render()
	fmt.Println()
}

func printBestAgent(best *agent.Agent) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BEST AGENT")
	t.SetStyle(table.StyleRounded)

	fitness, _ := best.Fitness()
	t.AppendRows([]table.Row{
		{"ID", best.ID},
		{"Generation", best.Generation},
		{"Fitness", fmt.Sprintf("%.4f", fitness)},
		{"Mutation rate", fmt.Sprintf("%.3f", best.MutationRate)},
	})
	t.AppendSeparator()
	for name, value := range best.StrategyParams {
		t.AppendRow(table.Row{name, value.String()})
	}

	t.Render()
	fmt.Println()
}

// momentumFactory creates gen-0 agents with randomized momentum
// strategy parameters.
func momentumFactory(rng *rand.Rand) evolution.Factory {
	return func() *agent.Agent {
		return agent.New(map[string]agent.ParamValue{
			"lookback_period":   agent.IntValue(int64(10 + rng.Intn(90))),
			"entry_threshold":   agent.FloatValue(0.5 + rng.Float64()*4.5),
			"exit_threshold":    agent.FloatValue(0.1 + rng.Float64()*2.0),
			"position_size":     agent.FloatValue(0.05 + rng.Float64()*0.45),
			"use_trailing_stop": agent.BoolValue(rng.Intn(2) == 0),
		}, 0, nil)
	}
}

// syntheticFitness scores a momentum strategy against an idealized
// parameter profile. It stands in for a real backtest so the binary
// runs self-contained; swap in a market-data evaluator for real use.
func syntheticFitness(a *agent.Agent) float64 {
	p := a.StrategyParams

	score := 10.0
	score -= math.Abs(float64(p["lookback_period"].Int)-30) * 0.05
	score -= math.Abs(p["entry_threshold"].Float-2.0) * 1.5
	score -= math.Abs(p["exit_threshold"].Float-0.5) * 2.0
	score -= math.Abs(p["position_size"].Float-0.25) * 4.0
	if p["use_trailing_stop"].Bool {
		score += 0.5
	}
	return score
}
