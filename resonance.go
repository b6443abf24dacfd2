package sft

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// ResonanceConfig holds the coupling constants of a network.
type ResonanceConfig struct {
	// Coupling is the per-broadcast Kuramoto pull on every receiver.
	// Default: 0.2.
	Coupling float64 `yaml:"coupling"`

	// CoherenceUptake is how much of a stronger source's coherence
	// surplus a receiver takes up per broadcast. Default: 0.3.
	CoherenceUptake float64 `yaml:"coherence_uptake"`

	// StabilizePull is the pull toward the network mean phase in
	// Stabilize. Default: 0.5.
	StabilizePull float64 `yaml:"stabilize_pull"`
}

// DefaultResonanceConfig returns the default network constants.
func DefaultResonanceConfig() ResonanceConfig {
	return ResonanceConfig{
		Coupling:        0.2,
		CoherenceUptake: 0.3,
		StabilizePull:   0.5,
	}
}

// ResonanceNetwork phase-couples the field states of several agents,
// typically the outputs of separate engines. Agents are visited in
// join order, so identical operation sequences give identical
// networks. Not safe for concurrent use.
type ResonanceNetwork struct {
	config ResonanceConfig
	bounds field.Bounds
	order  []string
	agents map[string]field.Field
}

// NewResonanceNetwork creates an empty network.
func NewResonanceNetwork(config ResonanceConfig, bounds field.Bounds) *ResonanceNetwork {
	return &ResonanceNetwork{
		config: config,
		bounds: bounds,
		agents: make(map[string]field.Field),
	}
}

// Join adds an agent and returns its id. An empty id gets a generated
// one; rejoining an existing id replaces its state.
func (n *ResonanceNetwork) Join(id string, st field.Field) string {
	if id == "" {
		id = uuid.NewString()[:8]
	}
	if _, ok := n.agents[id]; !ok {
		n.order = append(n.order, id)
	}
	n.agents[id] = st.Clamp(n.bounds)
	return id
}

// Agent returns an agent's current state.
func (n *ResonanceNetwork) Agent(id string) (field.Field, bool) {
	st, ok := n.agents[id]
	return st, ok
}

// Len returns the number of agents.
func (n *ResonanceNetwork) Len() int {
	return len(n.order)
}

// Broadcast couples every other agent toward the source agent's phase
// and lets weaker agents take up part of its coherence surplus.
func (n *ResonanceNetwork) Broadcast(from string) error {
	src, ok := n.agents[from]
	if !ok {
		return fmt.Errorf("unknown agent %q", from)
	}
	for _, id := range n.order {
		if id == from {
			continue
		}
		st := n.agents[id]
		st.Phase += n.config.Coupling * math.Sin(src.Phase-st.Phase)
		if src.Coherence > st.Coherence {
			st.Coherence += n.config.CoherenceUptake * (src.Coherence - st.Coherence)
		}
		n.agents[id] = st.Clamp(n.bounds)
	}
	return nil
}

// GlobalCoherence is the phase resultant across all agents, zero for
// an empty network.
func (n *ResonanceNetwork) GlobalCoherence() float64 {
	if len(n.order) == 0 {
		return 0
	}
	phases := make([]float64, 0, len(n.order))
	for _, id := range n.order {
		phases = append(phases, n.agents[id].Phase)
	}
	return field.Resultant(phases)
}

// Stabilize pulls every agent toward the network's circular mean
// phase.
func (n *ResonanceNetwork) Stabilize() {
	if len(n.order) == 0 {
		return
	}
	phases := make([]float64, 0, len(n.order))
	for _, id := range n.order {
		phases = append(phases, n.agents[id].Phase)
	}
	mean := field.CircularMean(phases)
	for _, id := range n.order {
		st := n.agents[id]
		st.Phase += n.config.StabilizePull * field.WrapDelta(st.Phase, mean)
		n.agents[id] = st.Clamp(n.bounds)
	}
}
