package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinfi/evolve-go/pkg/agent"
	"github.com/darwinfi/evolve-go/pkg/errors"
	"github.com/darwinfi/evolve-go/pkg/evolution"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAgentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := agent.New(map[string]agent.ParamValue{
		"use_trailing_stop": agent.BoolValue(true),
		"lookback_period":   agent.IntValue(50),
		"entry_threshold":   agent.FloatValue(0.25),
	}, 3, []string{"p1", "p2"})
	a.SetFitness(1.75)
	a.IsElite = true
	a.Metrics.WinRate = 0.6

	require.NoError(t, s.SaveAgent(ctx, a.Snapshot()))

	loaded, err := s.LoadAgent(ctx, a.ID)
	require.NoError(t, err)

	restored := agent.FromSnapshot(loaded)
	assert.Equal(t, a.ID, restored.ID)
	assert.Equal(t, a.Generation, restored.Generation)
	assert.Equal(t, a.ParentIDs, restored.ParentIDs)
	assert.Equal(t, a.StrategyParams, restored.StrategyParams)
	assert.Equal(t, a.Metrics, restored.Metrics)
	assert.True(t, restored.IsElite)

	f, scored := restored.Fitness()
	require.True(t, scored)
	assert.Equal(t, 1.75, f)
}

func TestAgentUnsetFitnessPersistsAsNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := agent.New(map[string]agent.ParamValue{"p": agent.IntValue(1)}, 0, nil)
	require.NoError(t, s.SaveAgent(ctx, a.Snapshot()))

	loaded, err := s.LoadAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Fitness)
}

func TestSaveAgentUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := agent.New(map[string]agent.ParamValue{"p": agent.IntValue(1)}, 0, nil)
	require.NoError(t, s.SaveAgent(ctx, a.Snapshot()))

	a.SetFitness(9.0)
	a.Generation = 4
	require.NoError(t, s.SaveAgent(ctx, a.Snapshot()))

	loaded, err := s.LoadAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Generation)
	require.NotNil(t, loaded.Fitness)
	assert.Equal(t, 9.0, *loaded.Fitness)
}

func TestLoadAgentNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadAgent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))
}

func TestGenerationRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	recs := []evolution.GenerationRecord{
		{Generation: 1, Timestamp: time.Now(), BestFitness: 3, AverageFitness: 2, PopulationSize: 10, DiversityMetric: 0.5, ElapsedSeconds: 0.1},
		{Generation: 2, Timestamp: time.Now(), BestFitness: 5, AverageFitness: 3, PopulationSize: 10, DiversityMetric: 0.4, ElapsedSeconds: 0.3},
	}
	for _, rec := range recs {
		require.NoError(t, s.SaveGenerationRecord(ctx, rec))
	}

	got, err := s.ListGenerationRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Generation)
	assert.Equal(t, 3.0, got[0].BestFitness)
	assert.Equal(t, 2, got[1].Generation)
	assert.Equal(t, 10, got[1].PopulationSize)
	assert.InDelta(t, 0.3, got[1].ElapsedSeconds, 1e-12)
}

func TestSaveHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	h := evolution.NewHistory()
	best := agent.New(map[string]agent.ParamValue{"p": agent.IntValue(2)}, 1, nil)
	best.SetFitness(7.0)
	h.RecordGeneration(1, []*agent.Agent{best}, 7.0, 7.0, 0)

	require.NoError(t, s.SaveHistory(ctx, h))

	records, err := s.ListGenerationRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	snap := h.BestAgents()[0]
	loaded, err := s.LoadAgent(ctx, snap.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Fitness)
	assert.Equal(t, 7.0, *loaded.Fitness)
}
