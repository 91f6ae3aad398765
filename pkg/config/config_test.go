package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinfi/evolve-go/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestManagerLoadsFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
evolution:
  population_size: 20
  tournament_size: 4
  crossover_rate: 0.8
  mutation_rate: 0.2
  elitism_count: 3
  generations: 7
  concurrency: 2
  seed: 99
logging:
  level: DEBUG
storage:
  enabled: true
  path: run.db
`)

	m := NewManager(path)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, 20, cfg.Evolution.PopulationSize)
	assert.Equal(t, 4, cfg.Evolution.TournamentSize)
	assert.Equal(t, 0.8, cfg.Evolution.CrossoverRate)
	assert.Equal(t, 3, cfg.Evolution.ElitismCount)
	assert.Equal(t, 7, cfg.Evolution.Generations)
	assert.Equal(t, int64(99), cfg.Evolution.Seed)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "run.db", cfg.Storage.Path)

	// Defaults survive for sections the file does not set.
	assert.Equal(t, ":9090", cfg.Monitoring.Addr)
}

func TestManagerLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "tournament exceeds population",
			yaml: `
evolution:
  population_size: 5
  tournament_size: 8
  generations: 3
  concurrency: 1
`,
		},
		{
			name: "elitism exceeds population",
			yaml: `
evolution:
  population_size: 5
  tournament_size: 2
  elitism_count: 9
  generations: 3
  concurrency: 1
`,
		},
		{
			name: "crossover rate out of range",
			yaml: `
evolution:
  population_size: 5
  tournament_size: 2
  crossover_rate: 1.4
  generations: 3
  concurrency: 1
`,
		},
		{
			name: "bad log level",
			yaml: `
evolution:
  population_size: 5
  tournament_size: 2
  generations: 3
  concurrency: 1
logging:
  level: LOUD
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(writeConfig(t, tt.yaml))
			err := m.Load()
			require.Error(t, err)
			assert.Equal(t, errors.ValidationFailed, errors.CodeOf(err))
		})
	}
}

func TestManagerLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	err := m.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))
}

func TestManagerGetWithoutLoad(t *testing.T) {
	m := NewManager("")
	cfg := m.Get()
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestManagerSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	m := NewManager(path)
	require.NoError(t, m.Save())

	reloaded := NewManager(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, DefaultConfig().Evolution, reloaded.Get().Evolution)
}
