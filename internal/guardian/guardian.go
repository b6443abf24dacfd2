// Package guardian enforces the per-step invariants of the evolution
// loop by clamping, never by failing: the coherence floor, curvature
// bounds, the relative energy band, the phase movement budget, and
// rebound damping after a loss spike.
package guardian

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Config holds the tunable constants of invariant enforcement.
type Config struct {
	// FloorDecay is how much the coherence floor may relax per step. Default: 0.002.
	FloorDecay float64 `yaml:"floor_decay"`

	// FloorMargin is the slack kept below the pre-step coherence. Default: 0.1.
	FloorMargin float64 `yaml:"floor_margin"`

	// LossSpikeFactor marks a step as a spike when its loss exceeds the
	// previous loss by this factor. Default: 1.3.
	LossSpikeFactor float64 `yaml:"loss_spike_factor"`

	// ReboundBlend is the pre-step weight when damping a spike. Default: 0.7.
	ReboundBlend float64 `yaml:"rebound_blend"`
}

// DefaultConfig returns the default guardian constants.
func DefaultConfig() Config {
	return Config{
		FloorDecay:      0.002,
		FloorMargin:     0.1,
		LossSpikeFactor: 1.3,
		ReboundBlend:    0.7,
	}
}

// Guardian carries the call-scoped floor and loss memory of one
// evolution run. Reset it at the start of every run.
type Guardian struct {
	config   Config
	bounds   field.Bounds
	floor    float64
	prevLoss float64
}

// NewGuardian creates a guardian in its reset state.
func NewGuardian(config Config, bounds field.Bounds) *Guardian {
	g := &Guardian{config: config, bounds: bounds}
	g.Reset()
	return g
}

// Reset clears the coherence floor and the loss memory. The first step
// after a reset can never count as a loss spike.
func (g *Guardian) Reset() {
	g.floor = 0
	g.prevLoss = math.Inf(1)
}

// Floor returns the current coherence floor.
func (g *Guardian) Floor() float64 {
	return g.floor
}

// Enforce clamps the step from before to after back inside the
// invariants and returns the corrected state. loss is the step's Ma'at
// loss, used for spike detection.
func (g *Guardian) Enforce(before, after field.Field, loss float64) field.Field {
	// The floor trails the pre-step coherence and may only relax by
	// FloorDecay per step.
	g.floor = math.Max(0, math.Max(g.floor-g.config.FloorDecay, before.Coherence-g.config.FloorMargin))

	out := after
	if out.Coherence < g.floor {
		out.Coherence = g.floor
	}

	// Energy may move at most EnergyBand relative to the pre-step
	// value; outside the band it snaps to the nearer edge.
	ratio := out.Energy / math.Max(before.Energy, g.bounds.Epsilon)
	if math.Abs(ratio-1) > g.bounds.EnergyBand {
		if ratio > 1 {
			out.Energy = before.Energy * (1 + g.bounds.EnergyBand)
		} else {
			out.Energy = before.Energy * (1 - g.bounds.EnergyBand)
		}
	}

	// Phase clip: the wrapped distance decides whether to clip, the raw
	// delta decides which way the step actually went.
	rawDelta := out.Phase - before.Phase
	if math.Abs(field.WrapDelta(before.Phase, out.Phase)) > g.bounds.PhaseMax {
		if rawDelta > 0 {
			out.Phase = before.Phase + g.bounds.PhaseMax
		} else {
			out.Phase = before.Phase - g.bounds.PhaseMax
		}
	}

	// A loss spike rebounds most of the way back to the pre-step state.
	if loss > g.config.LossSpikeFactor*g.prevLoss {
		out = before.Blend(out, g.config.ReboundBlend, g.bounds)
	}
	g.prevLoss = loss

	return out.Clamp(g.bounds)
}
