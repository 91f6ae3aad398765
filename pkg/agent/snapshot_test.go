package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	a := New(testParams(), 7, []string{"parent-1", "parent-2"})
	a.SetFitness(3.14)
	a.MutationRate = 0.2
	a.IsElite = true
	a.Active = false
	a.Metrics = Metrics{
		TotalReturn:    0.35,
		SharpeRatio:    1.8,
		MaxDrawdown:    0.12,
		WinRate:        0.61,
		AvgProfitLoss:  14.2,
		TradesExecuted: 120,
	}

	restored := FromSnapshot(a.Snapshot())

	assert.Equal(t, a.ID, restored.ID)
	assert.Equal(t, a.Generation, restored.Generation)
	assert.Equal(t, a.ParentIDs, restored.ParentIDs)
	assert.Equal(t, a.StrategyParams, restored.StrategyParams)
	assert.Equal(t, a.Metrics, restored.Metrics)
	assert.Equal(t, a.MutationRate, restored.MutationRate)
	assert.Equal(t, a.IsElite, restored.IsElite)
	assert.Equal(t, a.Active, restored.Active)

	f, scored := restored.Fitness()
	require.True(t, scored)
	assert.Equal(t, 3.14, f)
}

func TestSnapshotUnsetFitness(t *testing.T) {
	a := New(testParams(), 0, nil)

	snap := a.Snapshot()
	assert.Nil(t, snap.Fitness)

	restored := FromSnapshot(snap)
	_, scored := restored.Fitness()
	assert.False(t, scored)
}

func TestSnapshotDoesNotAliasAgentState(t *testing.T) {
	a := New(testParams(), 0, nil)
	snap := a.Snapshot()

	snap.StrategyParams["lookback_period"] = IntValue(999)
	assert.True(t, a.StrategyParams["lookback_period"].Equal(IntValue(50)))
}

func TestSnapshotJSON(t *testing.T) {
	a := New(testParams(), 1, []string{"p"})
	a.SetFitness(-0.5)

	data, err := json.Marshal(a.Snapshot())
	require.NoError(t, err)

	// Param kinds serialize by name.
	assert.Contains(t, string(data), `"kind":"int"`)
	assert.Contains(t, string(data), `"kind":"bool"`)
	assert.Contains(t, string(data), `"kind":"float"`)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := FromSnapshot(snap)
	assert.Equal(t, a.StrategyParams, restored.StrategyParams)
	f, scored := restored.Fitness()
	require.True(t, scored)
	assert.Equal(t, -0.5, f)
}
