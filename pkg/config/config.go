// Package config loads and validates the YAML configuration for an
// evolution run.
package config

// Config represents the complete configuration for an evolution run.
type Config struct {
	// Evolution engine parameters
	Evolution EvolutionConfig `yaml:"evolution" validate:"required"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage,omitempty" validate:"omitempty"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty" validate:"omitempty"`
}

// EvolutionConfig holds the genetic algorithm parameters.
type EvolutionConfig struct {
	// Number of agents per generation
	PopulationSize int `yaml:"population_size" validate:"required,min=1"`

	// Agents competing per tournament draw
	TournamentSize int `yaml:"tournament_size" validate:"required,min=1,ltefield=PopulationSize"`

	// Probability of crossover per offspring
	CrossoverRate float64 `yaml:"crossover_rate" validate:"min=0,max=1"`

	// Probability of mutating an offspring
	MutationRate float64 `yaml:"mutation_rate" validate:"min=0,max=1"`

	// Top agents carried over unchanged each generation
	ElitismCount int `yaml:"elitism_count" validate:"min=0,ltefield=PopulationSize"`

	// Generations to run
	Generations int `yaml:"generations" validate:"required,min=1"`

	// Parallel fitness evaluation workers
	Concurrency int `yaml:"concurrency" validate:"min=1"`

	// PRNG seed; 0 seeds from the clock
	Seed int64 `yaml:"seed,omitempty"`
}

// LoggingConfig holds logging behavior settings.
type LoggingConfig struct {
	// Log level (DEBUG, INFO, WARN, ERROR, FATAL)
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// Whether to use ANSI colors on the console
	UseColors bool `yaml:"use_colors,omitempty"`

	// Optional log file path
	FilePath string `yaml:"file_path,omitempty"`
}

// StorageConfig holds run persistence settings.
type StorageConfig struct {
	// Whether to persist agents and generation records
	Enabled bool `yaml:"enabled,omitempty"`

	// SQLite database path
	Path string `yaml:"path,omitempty" validate:"required_if=Enabled true"`
}

// MonitoringConfig holds Prometheus exposure settings.
type MonitoringConfig struct {
	// Whether to serve /metrics
	Enabled bool `yaml:"enabled,omitempty"`

	// Listen address for the metrics endpoint
	Addr string `yaml:"addr,omitempty" validate:"required_if=Enabled true"`
}

// DefaultConfig returns a configuration with reasonable defaults.
func DefaultConfig() *Config {
	return &Config{
		Evolution: EvolutionConfig{
			PopulationSize: 100,
			TournamentSize: 5,
			CrossoverRate:  0.7,
			MutationRate:   0.1,
			ElitismCount:   2,
			Generations:    10,
			Concurrency:    4,
		},
		Logging: LoggingConfig{
			Level:     "INFO",
			UseColors: true,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "darwinfi.db",
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}
