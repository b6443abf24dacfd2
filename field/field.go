// Package field defines the five-component semantic field state and the
// pure geometry used to compare and combine states. Field values are
// immutable by convention: every operation returns a new value, and all
// construction paths end in Clamp so no out-of-range state escapes.
package field

import (
	"math"
	"strconv"
	"strings"
)

// Field is a point in the five-component semantic state space.
type Field struct {
	Tension   float64 `yaml:"tension"`   // driving pressure, not clamped
	Curvature float64 `yaml:"curvature"` // local stiffness, clamped to Bounds
	Phase     float64 `yaml:"phase"`     // angle in [0, 2pi)
	Energy    float64 `yaml:"energy"`    // strictly positive
	Coherence float64 `yaml:"coherence"` // order parameter in [0, 1]
	Step      int     `yaml:"step"`      // kernel applications so far
}

// Bounds holds the hard limits enforced on every field state.
type Bounds struct {
	// CurvatureMin is the lower curvature clamp. Default: 0.01.
	CurvatureMin float64 `yaml:"curvature_min"`

	// CurvatureMax is the upper curvature clamp. Default: 10.0.
	CurvatureMax float64 `yaml:"curvature_max"`

	// PhaseMax is the largest phase movement allowed in one step. Default: pi/2.
	PhaseMax float64 `yaml:"phase_max"`

	// EnergyBand is the allowed relative energy change per step. Default: 0.2.
	EnergyBand float64 `yaml:"energy_band"`

	// Epsilon guards logarithms and divisions against zero. Default: 1e-12.
	Epsilon float64 `yaml:"epsilon"`
}

// DefaultBounds returns the standard state-space limits.
func DefaultBounds() Bounds {
	return Bounds{
		CurvatureMin: 0.01,
		CurvatureMax: 10.0,
		PhaseMax:     math.Pi / 2,
		EnergyBand:   0.2,
		Epsilon:      1e-12,
	}
}

// Default returns the rest state that empty input maps to: zero tension,
// unit curvature, zero phase, energy at the epsilon floor, zero coherence.
func Default(b Bounds) Field {
	return Field{Curvature: 1.0, Energy: b.Epsilon}
}

// Clamp returns a copy with every component forced into its legal range:
// phase wrapped onto [0, 2pi), curvature folded positive and clamped,
// coherence clamped to [0, 1], energy floored at epsilon. Tension is
// deliberately left free.
func (f Field) Clamp(b Bounds) Field {
	f.Phase = WrapAngle(f.Phase)
	f.Curvature = clampRange(math.Abs(f.Curvature), b.CurvatureMin, b.CurvatureMax)
	f.Coherence = clampRange(f.Coherence, 0, 1)
	if math.IsNaN(f.Energy) || f.Energy < b.Epsilon {
		f.Energy = b.Epsilon
	}
	return f
}

// Vec returns the five float components in canonical order:
// tension, curvature, phase, energy, coherence.
func (f Field) Vec() [5]float64 {
	return [5]float64{f.Tension, f.Curvature, f.Phase, f.Energy, f.Coherence}
}

// Canonical renders the vector as a deterministic string: each component
// in shortest round-trip form, comma separated. Equal states produce
// byte-identical strings on every platform, which makes this the stable
// pre-image for state signatures.
func (f Field) Canonical() string {
	v := f.Vec()
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Dist returns the geodesic distance between two states. Curvature and
// energy enter through their logarithms and phase through its wrapped
// difference scaled by pi, so every term is dimensionless and a unit of
// distance means roughly the same thing along each axis.
func (f Field) Dist(o Field, eps float64) float64 {
	dt := f.Tension - o.Tension
	dk := math.Log(math.Max(f.Curvature, eps)) - math.Log(math.Max(o.Curvature, eps))
	dp := WrapDelta(o.Phase, f.Phase) / math.Pi
	de := math.Log(math.Max(f.Energy, eps)) - math.Log(math.Max(o.Energy, eps))
	return math.Sqrt(dt*dt + dk*dk + dp*dp + de*de)
}

// Inner is the resonance product of two states: phase alignment times
// curvature similarity times the geometric mean of energies. Positive
// when the states reinforce each other, negative in anti-phase.
func (f Field) Inner(o Field, eps float64) float64 {
	phaseSim := math.Cos(f.Phase - o.Phase)
	kappaSim := math.Min(f.Curvature, o.Curvature) / math.Max(math.Max(f.Curvature, o.Curvature), eps)
	return phaseSim * kappaSim * math.Sqrt(f.Energy*o.Energy)
}

// Blend interpolates between f (weight alpha) and o (weight 1-alpha).
// Tension, curvature and energy blend linearly; phase blends on the
// circle so opposite angles cannot cancel through zero; coherence takes
// the maximum. The step counter also takes the maximum: blending is not
// a kernel application and must not advance time.
func (f Field) Blend(o Field, alpha float64, b Bounds) Field {
	s := alpha*math.Sin(f.Phase) + (1-alpha)*math.Sin(o.Phase)
	c := alpha*math.Cos(f.Phase) + (1-alpha)*math.Cos(o.Phase)
	out := Field{
		Tension:   alpha*f.Tension + (1-alpha)*o.Tension,
		Curvature: alpha*f.Curvature + (1-alpha)*o.Curvature,
		Phase:     math.Atan2(s, c),
		Energy:    alpha*f.Energy + (1-alpha)*o.Energy,
		Coherence: math.Max(f.Coherence, o.Coherence),
		Step:      max(f.Step, o.Step),
	}
	return out.Clamp(b)
}

// WrapAngle maps an angle onto [0, 2pi).
func WrapAngle(theta float64) float64 {
	m := math.Mod(theta, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return m
}

// WrapDelta returns the signed shortest rotation from a to b, in [-pi, pi).
func WrapDelta(a, b float64) float64 {
	d := math.Mod(b-a+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}

// CircularMean returns the vector-average angle of thetas in [0, 2pi).
// An empty slice and a perfectly cancelling set both yield 0.
func CircularMean(thetas []float64) float64 {
	var s, c float64
	for _, t := range thetas {
		s += math.Sin(t)
		c += math.Cos(t)
	}
	if s == 0 && c == 0 {
		return 0
	}
	return WrapAngle(math.Atan2(s, c))
}

// Resultant returns the mean resultant length of thetas: 1.0 for
// perfectly aligned angles, near 0 for uniformly scattered ones.
func Resultant(thetas []float64) float64 {
	if len(thetas) == 0 {
		return 0
	}
	var s, c float64
	for _, t := range thetas {
		s += math.Sin(t)
		c += math.Cos(t)
	}
	return math.Hypot(s, c) / float64(len(thetas))
}

// SoftmaxWeights returns softmax weights over the inverse curvatures of
// fields: low-curvature (soft, pliable) states dominate. Weights are
// computed in slice order, sum to 1, and the largest raw score is
// subtracted before exponentiation so extreme curvatures cannot overflow.
func SoftmaxWeights(fields []Field, eps float64) []float64 {
	if len(fields) == 0 {
		return nil
	}
	raw := make([]float64, len(fields))
	maxRaw := math.Inf(-1)
	for i, f := range fields {
		raw[i] = 1 / math.Max(f.Curvature, eps)
		if raw[i] > maxRaw {
			maxRaw = raw[i]
		}
	}
	var sum float64
	for i, x := range raw {
		raw[i] = math.Exp(x - maxRaw)
		sum += raw[i]
	}
	for i := range raw {
		raw[i] /= sum
	}
	return raw
}

// clampRange restricts x to [min, max]. NaN and infinities collapse to min.
func clampRange(x, min, max float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return min
	}
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
