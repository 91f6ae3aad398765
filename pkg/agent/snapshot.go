package agent

// Snapshot is the plain field-level representation of an agent used by
// external persistence layers. It carries every field an agent needs
// to be reconstructed exactly, including an unset fitness (nil).
type Snapshot struct {
	ID             string                `json:"id"`
	Generation     int                   `json:"generation"`
	ParentIDs      []string              `json:"parent_ids"`
	StrategyParams map[string]ParamValue `json:"strategy_params"`
	Metrics        Metrics               `json:"metrics"`
	Fitness        *float64              `json:"fitness"`
	MutationRate   float64               `json:"mutation_rate"`
	IsElite        bool                  `json:"is_elite"`
	Active         bool                  `json:"active"`
}

// Snapshot derives a serialization snapshot from the agent. Maps and
// slices are copied so the snapshot does not alias live state.
func (a *Agent) Snapshot() Snapshot {
	params := make(map[string]ParamValue, len(a.StrategyParams))
	for k, v := range a.StrategyParams {
		params[k] = v
	}

	parentIDs := make([]string, len(a.ParentIDs))
	copy(parentIDs, a.ParentIDs)

	var fitness *float64
	if a.scored {
		f := a.fitness
		fitness = &f
	}

	return Snapshot{
		ID:             a.ID,
		Generation:     a.Generation,
		ParentIDs:      parentIDs,
		StrategyParams: params,
		Metrics:        a.Metrics,
		Fitness:        fitness,
		MutationRate:   a.MutationRate,
		IsElite:        a.IsElite,
		Active:         a.Active,
	}
}

// FromSnapshot reconstructs an agent from a snapshot with every field
// restored exactly, identifier included.
func FromSnapshot(s Snapshot) *Agent {
	a := New(s.StrategyParams, s.Generation, s.ParentIDs)
	a.ID = s.ID
	a.Metrics = s.Metrics
	a.MutationRate = s.MutationRate
	a.IsElite = s.IsElite
	a.Active = s.Active
	if s.Fitness != nil {
		a.SetFitness(*s.Fitness)
	}
	return a
}
