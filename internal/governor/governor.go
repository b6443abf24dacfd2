// Package governor scores finished evolution runs. It computes the
// Ma'at loss used by the driver and the guardian, screens trajectories
// for manipulation patterns, and verdicts each run as allow, rebuild
// or block.
package governor

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Decision is the governor's verdict over one evolution run.
type Decision string

const (
	// DecisionAllow passes the result through unchanged.
	DecisionAllow Decision = "allow"

	// DecisionRebuild sends the run back for damped re-evolution.
	DecisionRebuild Decision = "rebuild"

	// DecisionBlock rejects the run as manipulated.
	DecisionBlock Decision = "block"
)

// Config holds the tunable constants of judgement.
type Config struct {
	// Lambda taxes curvature in the Ma'at loss. Default: 0.02.
	Lambda float64 `yaml:"lambda"`

	// Strictness is the minimum mean Ma'at score to allow a run. Default: 0.75.
	Strictness float64 `yaml:"strictness"`

	// RebuildSteps is how many damped steps a rebuild runs. Default: 10.
	RebuildSteps int `yaml:"rebuild_steps"`

	// RebuildDamping multiplies the kernel damping rate during a
	// rebuild. Default: 1.5.
	RebuildDamping float64 `yaml:"rebuild_damping"`

	// ManipulationThreshold blocks a run when the indicator mean
	// exceeds it. Default: 0.7.
	ManipulationThreshold float64 `yaml:"manipulation_threshold"`

	// PhaseJumpLimit is the wrapped per-step phase move that counts as
	// a teleport. Default: pi/2.
	PhaseJumpLimit float64 `yaml:"phase_jump_limit"`

	// CoherenceJumpLimit is the per-step coherence move that counts as
	// a cliff. Default: 0.3.
	CoherenceJumpLimit float64 `yaml:"coherence_jump_limit"`

	// EnergyAnomalyFactor flags final energy this far from the
	// trajectory mean, relative to the mean. Default: 0.5.
	EnergyAnomalyFactor float64 `yaml:"energy_anomaly_factor"`
}

// DefaultConfig returns the default judgement constants.
func DefaultConfig() Config {
	return Config{
		Lambda:                0.02,
		Strictness:            0.75,
		RebuildSteps:          10,
		RebuildDamping:        1.5,
		ManipulationThreshold: 0.7,
		PhaseJumpLimit:        math.Pi / 2,
		CoherenceJumpLimit:    0.3,
		EnergyAnomalyFactor:   0.5,
	}
}

// Governor is stateless and safe for concurrent use.
type Governor struct {
	config Config
	bounds field.Bounds
}

// NewGovernor creates a governor.
func NewGovernor(config Config, bounds field.Bounds) *Governor {
	return &Governor{config: config, bounds: bounds}
}

// Loss is the Ma'at loss of a state against the memory attractor:
// geodesic distance plus curvature taxed at Lambda.
func (g *Governor) Loss(psi, mem field.Field) float64 {
	return psi.Dist(mem, g.bounds.Epsilon) + g.config.Lambda*psi.Curvature
}

// Judge verdicts a finished run. in and out are the states before and
// after evolution, world optionally adds an alignment criterion, and
// history is the run's trajectory for manipulation screening. The
// returned score is the manipulation score on a block, otherwise the
// mean Ma'at score.
func (g *Governor) Judge(in, out field.Field, world *field.Field, history []field.Field) (Decision, float64) {
	if score := g.manipulationScore(history); score > g.config.ManipulationThreshold {
		return DecisionBlock, score
	}

	// Coherence gain, curvature smoothing and, when a world field is
	// present, alignment with it. Each criterion scores in [0, 1].
	scores := []float64{clampUnit(0.5 + (out.Coherence - in.Coherence))}
	if in.Curvature > g.bounds.Epsilon {
		scores = append(scores, 1-math.Min(out.Curvature/in.Curvature, 1))
	}
	if world != nil {
		scores = append(scores, clampUnit((out.Inner(*world, g.bounds.Epsilon)+1)/2))
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	if mean < g.config.Strictness {
		return DecisionRebuild, mean
	}
	return DecisionAllow, mean
}

// manipulationScore scans a trajectory for the jump patterns of an
// adversarial input: phase teleports, coherence cliffs, and energy far
// off the trajectory mean. Trajectories shorter than three states
// score zero.
func (g *Governor) manipulationScore(history []field.Field) float64 {
	if len(history) < 3 {
		return 0
	}

	var indicators []float64

	for i := 1; i < len(history); i++ {
		jump := math.Abs(field.WrapDelta(history[i-1].Phase, history[i].Phase))
		if jump > g.config.PhaseJumpLimit {
			indicators = append(indicators, jump/math.Pi)
		}
	}

	var maxCliff float64
	for i := 1; i < len(history); i++ {
		cliff := math.Abs(history[i].Coherence - history[i-1].Coherence)
		if cliff > maxCliff {
			maxCliff = cliff
		}
	}
	if maxCliff > g.config.CoherenceJumpLimit {
		indicators = append(indicators, maxCliff)
	}

	var mean float64
	for _, st := range history {
		mean += st.Energy
	}
	mean /= float64(len(history))
	last := history[len(history)-1].Energy
	if math.Abs(last-mean) > g.config.EnergyAnomalyFactor*mean {
		indicators = append(indicators, g.config.EnergyAnomalyFactor)
	}

	if len(indicators) == 0 {
		return 0
	}
	var sum float64
	for _, v := range indicators {
		sum += v
	}
	return math.Min(1, sum/float64(len(indicators)))
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
