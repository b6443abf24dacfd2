// Package memory maintains the exponentially smoothed attractor the
// evolution kernel pulls toward. Every observed state is folded in at a
// coherence-weighted rate, a bounded history ring drives the coherence
// floor, and a phase limit cycle is promoted to attractor when it is
// more coherent than the smoothed state.
package memory

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Config holds the tunable constants of the memory attractor.
type Config struct {
	// AbsorbRate is the base smoothing rate per observation. Default: 0.2.
	AbsorbRate float64 `yaml:"absorb_rate"`

	// TensionDecay discounts observed tension before blending. Default: 0.9.
	TensionDecay float64 `yaml:"tension_decay"`

	// CurvatureSmoothing discounts observed curvature before blending. Default: 0.95.
	CurvatureSmoothing float64 `yaml:"curvature_smoothing"`

	// FloorDecay is how much the coherence floor may relax per observation. Default: 0.001.
	FloorDecay float64 `yaml:"floor_decay"`

	// FloorMargin is the gap kept between the phase resultant and the floor. Default: 0.05.
	FloorMargin float64 `yaml:"floor_margin"`

	// CoherenceRetention bounds coherence decay per observation. Default: 0.99.
	CoherenceRetention float64 `yaml:"coherence_retention"`

	// HistorySize is the observation ring capacity. Default: 100.
	HistorySize int `yaml:"history_size"`

	// CycleWindow is how many recent states a limit cycle spans. Default: 10.
	CycleWindow int `yaml:"cycle_window"`

	// CycleTolerance is the largest per-step phase delta inside a cycle. Default: 0.3.
	CycleTolerance float64 `yaml:"cycle_tolerance"`

	// FuseRate scales the per-source absorb rate during fusion. Default: 0.3.
	FuseRate float64 `yaml:"fuse_rate"`

	// Initial is the attractor state before any observation.
	Initial field.Field `yaml:"initial"`
}

// DefaultConfig returns the default memory constants.
func DefaultConfig() Config {
	return Config{
		AbsorbRate:         0.2,
		TensionDecay:       0.9,
		CurvatureSmoothing: 0.95,
		FloorDecay:         0.001,
		FloorMargin:        0.05,
		CoherenceRetention: 0.99,
		HistorySize:        100,
		CycleWindow:        10,
		CycleTolerance:     0.3,
		FuseRate:           0.3,
		Initial:            field.Field{Curvature: 0.5, Energy: 0.5, Coherence: 0.5},
	}
}

// Memory is the smoothed attractor of one engine session. It is owned by
// a single goroutine and is not safe for concurrent use.
type Memory struct {
	config  Config
	bounds  field.Bounds
	state   field.Field
	history []field.Field // newest last, capped at HistorySize
	floor   float64
	cycle   *field.Field
}

// NewMemory creates a memory attractor seeded with the configured
// initial state.
func NewMemory(config Config, bounds field.Bounds) *Memory {
	return &Memory{
		config: config,
		bounds: bounds,
		state:  config.Initial.Clamp(bounds),
	}
}

// Absorb folds one observed state into the attractor at the base rate.
// The effective rate is tanh(2C) times the base rate, so incoherent
// observations barely register while coherent ones pull hard.
func (m *Memory) Absorb(obs field.Field) {
	m.absorbAt(obs, m.config.AbsorbRate)
}

// Fuse absorbs several sources in one pass, each at a rate scaled by its
// softmax weight over inverse curvature: softer sources carry more of
// the fusion. Sources are processed in slice order, so identical input
// slices always produce identical attractor states.
func (m *Memory) Fuse(sources []field.Field) {
	if len(sources) == 0 {
		return
	}
	weights := field.SoftmaxWeights(sources, m.bounds.Epsilon)
	for i, f := range sources {
		m.absorbAt(f, weights[i]*m.config.FuseRate)
	}
}

func (m *Memory) absorbAt(obs field.Field, rate float64) {
	w := math.Tanh(2*obs.Coherence) * rate

	st := m.state
	st.Tension = (1-w)*st.Tension + w*obs.Tension*m.config.TensionDecay
	st.Curvature = (1-w)*st.Curvature + w*obs.Curvature*m.config.CurvatureSmoothing
	s := (1-w)*math.Sin(st.Phase) + w*math.Sin(obs.Phase)
	c := (1-w)*math.Cos(st.Phase) + w*math.Cos(obs.Phase)
	st.Phase = field.WrapAngle(math.Atan2(s, c))
	st.Energy = (1-w)*st.Energy + w*obs.Energy

	m.history = append(m.history, st)
	if len(m.history) > m.config.HistorySize {
		m.history = m.history[1:]
	}

	// The coherence floor follows the phase order of the whole ring and
	// may only relax by FloorDecay per observation. Coherence itself can
	// never fall faster than the retention factor allows.
	if len(m.history) >= 3 {
		thetas := make([]float64, len(m.history))
		for i, h := range m.history {
			thetas[i] = h.Phase
		}
		r := field.Resultant(thetas)
		m.floor = math.Max(m.floor-m.config.FloorDecay, r-m.config.FloorMargin)
		st.Coherence = math.Max(r, math.Max(m.floor, st.Coherence*m.config.CoherenceRetention))
	}

	m.state = st.Clamp(m.bounds)
	m.detectCycle()
}

// detectCycle promotes the trailing window to a limit-cycle candidate
// when consecutive phases drift less than the tolerance. The candidate
// is the component average of the window with its best coherence.
func (m *Memory) detectCycle() {
	w := m.config.CycleWindow
	if w < 2 || len(m.history) < w {
		m.cycle = nil
		return
	}

	recent := m.history[len(m.history)-w:]
	for i := 1; i < len(recent); i++ {
		if math.Abs(recent[i].Phase-recent[i-1].Phase) >= m.config.CycleTolerance {
			m.cycle = nil
			return
		}
	}

	var tension, kappa, energy, cmax float64
	thetas := make([]float64, len(recent))
	for i, h := range recent {
		tension += h.Tension
		kappa += h.Curvature
		energy += h.Energy
		cmax = math.Max(cmax, h.Coherence)
		thetas[i] = h.Phase
	}
	n := float64(len(recent))
	cyc := field.Field{
		Tension:   tension / n,
		Curvature: kappa / n,
		Phase:     field.CircularMean(thetas),
		Energy:    energy / n,
		Coherence: cmax,
		Step:      m.state.Step,
	}
	cyc = cyc.Clamp(m.bounds)
	m.cycle = &cyc
}

// State returns the current smoothed attractor state.
func (m *Memory) State() field.Field {
	return m.state
}

// Coherence returns the attractor's current coherence.
func (m *Memory) Coherence() float64 {
	return m.state.Coherence
}

// Floor returns the maintained coherence floor.
func (m *Memory) Floor() float64 {
	return m.floor
}

// HistoryLen reports how many observations the ring holds.
func (m *Memory) HistoryLen() int {
	return len(m.history)
}

// Cycle returns the current limit-cycle candidate, if one is active.
func (m *Memory) Cycle() (field.Field, bool) {
	if m.cycle == nil {
		return field.Field{}, false
	}
	return *m.cycle, true
}

// Attractor returns the state the kernel should pull toward: the limit
// cycle when one is active and more coherent than the smoothed state,
// otherwise the smoothed state.
func (m *Memory) Attractor() field.Field {
	if m.cycle != nil && m.cycle.Coherence > m.state.Coherence {
		return *m.cycle
	}
	return m.state
}
