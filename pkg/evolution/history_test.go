package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinfi/evolve-go/pkg/agent"
)

func scoredAgent(fitness float64) *agent.Agent {
	a := agent.New(map[string]agent.ParamValue{"p": agent.IntValue(1)}, 0, nil)
	a.SetFitness(fitness)
	return a
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()

	_, ok := h.LatestStats()
	assert.False(t, ok)
	assert.Nil(t, h.BestAgentEver())
	assert.Empty(t, h.Records())
}

func TestHistoryRecordGeneration(t *testing.T) {
	h := NewHistory()
	population := []*agent.Agent{scoredAgent(1.0), scoredAgent(4.0), scoredAgent(2.0)}

	h.RecordGeneration(1, population, 4.0, 2.3333, 1.5)

	latest, ok := h.LatestStats()
	require.True(t, ok)
	assert.Equal(t, 1, latest.Generation)
	assert.Equal(t, 4.0, latest.BestFitness)
	assert.Equal(t, 3, latest.PopulationSize)
	assert.Equal(t, 1.5, latest.DiversityMetric)
	assert.False(t, latest.Timestamp.IsZero())
	assert.GreaterOrEqual(t, latest.ElapsedSeconds, 0.0)
}

func TestHistoryAppendOnly(t *testing.T) {
	h := NewHistory()

	h.RecordGeneration(1, []*agent.Agent{scoredAgent(1.0)}, 1.0, 1.0, 0)
	first, _ := h.LatestStats()

	h.RecordGeneration(2, []*agent.Agent{scoredAgent(2.0)}, 2.0, 2.0, 0)

	records := h.Records()
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0], "prior entries are never mutated")

	latest, _ := h.LatestStats()
	assert.Equal(t, 2, latest.Generation)

	// Records() hands out a copy.
	records[0].BestFitness = 99
	assert.Equal(t, 1.0, h.Records()[0].BestFitness)
}

func TestHistoryBestAgentSnapshotIsClone(t *testing.T) {
	h := NewHistory()
	best := scoredAgent(5.0)

	h.RecordGeneration(1, []*agent.Agent{best}, 5.0, 5.0, 0)

	// Mutating the live agent afterwards must not touch the snapshot.
	best.StrategyParams["p"] = agent.IntValue(999)
	best.ResetFitness()

	snap := h.BestAgentEver()
	require.NotNil(t, snap)
	assert.NotEqual(t, best.ID, snap.ID)
	assert.True(t, snap.StrategyParams["p"].Equal(agent.IntValue(1)))

	f, scored := snap.Fitness()
	require.True(t, scored)
	assert.Equal(t, 5.0, f)
}

func TestHistoryBestAgentEver(t *testing.T) {
	h := NewHistory()

	h.RecordGeneration(1, []*agent.Agent{scoredAgent(3.0)}, 3.0, 3.0, 0)
	h.RecordGeneration(2, []*agent.Agent{scoredAgent(7.0)}, 7.0, 7.0, 0)
	h.RecordGeneration(3, []*agent.Agent{scoredAgent(5.0)}, 5.0, 5.0, 0)

	best := h.BestAgentEver()
	require.NotNil(t, best)
	f, _ := best.Fitness()
	assert.Equal(t, 7.0, f)

	assert.Len(t, h.BestAgents(), 3)
}

func TestHistorySkipsUnscoredAgents(t *testing.T) {
	h := NewHistory()
	unscored := agent.New(map[string]agent.ParamValue{"p": agent.IntValue(1)}, 0, nil)

	h.RecordGeneration(1, []*agent.Agent{unscored}, 0, 0, 0)

	// A record lands, but no best-agent snapshot can be taken.
	_, ok := h.LatestStats()
	assert.True(t, ok)
	assert.Nil(t, h.BestAgentEver())
}
