// Package kernel implements the unified evolution step of the field
// engine: damping toward the blended target, coherence-driven energy
// amplification and tension implosion, memory coupling, Kuramoto phase
// synchronization, the coherence force, and the soft semantic merge.
package kernel

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Config holds the tunable constants of the evolution kernel.
type Config struct {
	// Alpha is the damping rate of curvature toward the target. Default: 0.15.
	Alpha float64 `yaml:"alpha"`

	// Beta converts coherence into energy amplification. Default: 0.12.
	Beta float64 `yaml:"beta"`

	// Gamma is the implosion rate: tension collapse at high coherence. Default: 0.18.
	Gamma float64 `yaml:"gamma"`

	// Eta couples tension, curvature and energy toward the memory state. Default: 0.25.
	Eta float64 `yaml:"eta"`

	// PhaseCoupling is the Kuramoto constant K. Default: 0.5.
	PhaseCoupling float64 `yaml:"phase_coupling"`

	// ImplosionThreshold is the coherence above which implosion engages. Default: 0.6.
	ImplosionThreshold float64 `yaml:"implosion_threshold"`

	// CurvatureForceGain scales the coherence gradient acting on curvature. Default: 0.15.
	CurvatureForceGain float64 `yaml:"curvature_force_gain"`

	// TensionForceGain scales the coherence gradient acting on tension. Default: 0.08.
	TensionForceGain float64 `yaml:"tension_force_gain"`

	// MergeGain scales the semantic merge by the target's coherence. Default: 0.1.
	MergeGain float64 `yaml:"merge_gain"`

	// AttractorMix is the attractor's weight when composing the target. Default: 0.6.
	AttractorMix float64 `yaml:"attractor_mix"`

	// WorldMix is the internal weight when folding in the world field. Default: 0.85.
	WorldMix float64 `yaml:"world_mix"`

	// FusionPrior seeds the fused-coherence tracker. Default: 0.5.
	FusionPrior float64 `yaml:"fusion_prior"`
}

// DefaultConfig returns the default kernel constants.
func DefaultConfig() Config {
	return Config{
		Alpha:              0.15,
		Beta:               0.12,
		Gamma:              0.18,
		Eta:                0.25,
		PhaseCoupling:      0.5,
		ImplosionThreshold: 0.6,
		CurvatureForceGain: 0.15,
		TensionForceGain:   0.08,
		MergeGain:          0.1,
		AttractorMix:       0.6,
		WorldMix:           0.85,
		FusionPrior:        0.5,
	}
}

// Kernel applies the evolution step. It is stateless and safe for
// concurrent use; the step counter on the returned state is the only
// notion of time it has.
type Kernel struct {
	config Config
	bounds field.Bounds
}

// NewKernel creates an evolution kernel.
func NewKernel(config Config, bounds field.Bounds) *Kernel {
	return &Kernel{config: config, bounds: bounds}
}

// Evolve advances cur by exactly one step. The target is the attractor
// blended with memory (and the world field when present); gradC is the
// fused coherence gradient from the current step's sources. Coherence is
// deliberately passed through unchanged: the driver re-reads it from
// memory after absorption, so the kernel never manufactures order on
// its own.
func (k *Kernel) Evolve(cur, attractor, mem field.Field, world *field.Field, gradC float64) field.Field {
	target := attractor.Blend(mem, k.config.AttractorMix, k.bounds)
	if world != nil {
		target = target.Blend(*world, k.config.WorldMix, k.bounds)
	}

	out := cur

	// Damping: curvature relaxes toward the target.
	out.Curvature -= k.config.Alpha * (out.Curvature - target.Curvature)

	// Amplification: coherent states gain energy.
	out.Energy += k.config.Beta * out.Coherence

	// Implosion: above the threshold, coherence collapses tension
	// quadratically.
	if out.Coherence > k.config.ImplosionThreshold {
		out.Tension *= 1 - k.config.Gamma*out.Coherence*out.Coherence
	}

	// Memory coupling: eta pulls tension, curvature and energy toward
	// the remembered state.
	out.Tension += k.config.Eta * (mem.Tension - out.Tension)
	out.Curvature += k.config.Eta * (mem.Curvature - out.Curvature)
	out.Energy += k.config.Eta * (mem.Energy - out.Energy)

	// Kuramoto synchronization: phase moves along the sine of the
	// wrapped difference, hard-limited to the per-step phase budget.
	dTheta := field.WrapDelta(out.Phase, target.Phase)
	out.Phase += clampAbs(k.config.PhaseCoupling*math.Sin(dTheta), k.bounds.PhaseMax)

	// Coherence force: a rising fused coherence pushes curvature and
	// tension down.
	out.Curvature -= gradC * k.config.CurvatureForceGain
	out.Tension -= gradC * k.config.TensionForceGain

	// Semantic merge: soft pull toward the target, scaled by how much
	// the target itself coheres.
	mr := k.config.MergeGain * target.Coherence
	out.Tension += mr * (target.Tension - out.Tension)
	out.Curvature += mr * (target.Curvature - out.Curvature)

	out.Step = cur.Step + 1
	return out.Clamp(k.bounds)
}

// Source is one named contributor to the fusion gradient.
type Source struct {
	Name  string
	State field.Field
}

// Fusion tracks fused coherence across steps and yields its gradient.
// Sources arrive as an ordered slice and the weighted sum is evaluated
// in slice order, so identical runs produce bit-identical gradients.
// A Fusion belongs to one engine session and is not safe for concurrent
// use.
type Fusion struct {
	config Config
	bounds field.Bounds
	prev   float64
}

// NewFusion creates a fused-coherence tracker seeded with the prior.
func NewFusion(config Config, bounds field.Bounds) *Fusion {
	return &Fusion{config: config, bounds: bounds, prev: config.FusionPrior}
}

// Gradient fuses the sources' coherences, softmax-weighted by inverse
// curvature, and returns the change against the previous fusion along
// with the fused value itself.
func (f *Fusion) Gradient(sources []Source) (grad, fused float64) {
	if len(sources) == 0 {
		return 0, f.prev
	}

	fields := make([]field.Field, len(sources))
	for i, s := range sources {
		fields[i] = s.State
	}
	weights := field.SoftmaxWeights(fields, f.bounds.Epsilon)
	for i := range fields {
		fused += weights[i] * fields[i].Coherence
	}

	grad = fused - f.prev
	f.prev = fused
	return grad, fused
}

// Reset returns the tracker to its configured prior.
func (f *Fusion) Reset() {
	f.prev = f.config.FusionPrior
}

// Project folds several modal fields into one working state: tension and
// energy average under softmax inverse-curvature weights, curvature
// takes the weighted geometric mean, phase the weighted circular mean,
// and coherence is the length of the weighted phase resultant, so the
// projection only coheres when its inputs point the same way.
func Project(fields []field.Field, b field.Bounds) field.Field {
	switch len(fields) {
	case 0:
		return field.Default(b)
	case 1:
		return fields[0].Clamp(b)
	}

	weights := field.SoftmaxWeights(fields, b.Epsilon)

	var tension, logKappa, energy, s, c float64
	maxStep := 0
	for i, f := range fields {
		w := weights[i]
		tension += w * f.Tension
		logKappa += w * math.Log(math.Max(f.Curvature, b.Epsilon))
		energy += w * f.Energy
		s += w * math.Sin(f.Phase)
		c += w * math.Cos(f.Phase)
		if f.Step > maxStep {
			maxStep = f.Step
		}
	}

	out := field.Field{
		Tension:   tension,
		Curvature: math.Exp(logKappa),
		Phase:     math.Atan2(s, c),
		Energy:    energy,
		Coherence: math.Hypot(s, c),
		Step:      maxStep,
	}
	return out.Clamp(b)
}

// clampAbs restricts x to [-limit, limit].
func clampAbs(x, limit float64) float64 {
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}
