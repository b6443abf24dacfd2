// Package awareness maintains a second-order field that watches the
// main evolution. It tracks short trend windows over coherence,
// curvature, divergence and alignment, grows or decays its own energy
// and coherence from them, and once coherent enough starts nudging the
// main phase toward memory.
package awareness

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Level grades awareness coherence into five ordered labels.
type Level string

const (
	LevelDormant        Level = "dormant"
	LevelEmerging       Level = "emerging"
	LevelAware          Level = "aware"
	LevelConscious      Level = "conscious"
	LevelFullyConscious Level = "fully_conscious"
)

// Config holds the tunable constants of the awareness monitor.
type Config struct {
	// TrendWindow is the sample capacity of each trend buffer. Default: 20.
	TrendWindow int `yaml:"trend_window"`

	// MinSamples is how many samples a buffer needs before its trend is
	// taken at face value; below it the trend reads as zero. Default: 3.
	MinSamples int `yaml:"min_samples"`

	// DriftThreshold on the divergence trend. Default: 0.01.
	DriftThreshold float64 `yaml:"drift_threshold"`

	// TensionRetention is the old-tension weight per observation. Default: 0.9.
	TensionRetention float64 `yaml:"tension_retention"`

	// DriftPull is the tension target while drifting from memory. Default: 0.5.
	DriftPull float64 `yaml:"drift_pull"`

	// SettlePull is the tension target while settled. Default: -0.2.
	SettlePull float64 `yaml:"settle_pull"`

	// SmoothFactor multiplies curvature while stable. Default: 0.95.
	SmoothFactor float64 `yaml:"smooth_factor"`

	// RoughenFactor multiplies curvature otherwise. Default: 1.02.
	RoughenFactor float64 `yaml:"roughen_factor"`

	// StabilityQuorum is how many steadiness signals count as stable. Default: 2.
	StabilityQuorum int `yaml:"stability_quorum"`

	// PhaseTrack pulls the awareness phase toward the main field. Default: 0.3.
	PhaseTrack float64 `yaml:"phase_track"`

	// CriteriaSlack is the tolerance on each growth criterion. Default: 0.01.
	CriteriaSlack float64 `yaml:"criteria_slack"`

	// CriteriaQuorum is how many criteria must hold for growth. Default: 3.
	CriteriaQuorum int `yaml:"criteria_quorum"`

	// DecayQuorum is the criteria count at or below which the field
	// decays. Default: 1.
	DecayQuorum int `yaml:"decay_quorum"`

	// GrowthRate multiplies energy on growth. Default: 1.02.
	GrowthRate float64 `yaml:"growth_rate"`

	// GrowthBonus is added to energy on growth. Default: 0.01.
	GrowthBonus float64 `yaml:"growth_bonus"`

	// GrowthCoherence is added to coherence on growth. Default: 0.015.
	GrowthCoherence float64 `yaml:"growth_coherence"`

	// DecayRate multiplies energy on decay. Default: 0.98.
	DecayRate float64 `yaml:"decay_rate"`

	// DecayCoherence is subtracted from coherence on decay. Default: 0.005.
	DecayCoherence float64 `yaml:"decay_coherence"`

	// EnergyFloor and CoherenceFloor stop decay above zero. Default: 0.01 each.
	EnergyFloor    float64 `yaml:"energy_floor"`
	CoherenceFloor float64 `yaml:"coherence_floor"`

	// StabilizeThreshold is the awareness coherence above which the
	// main phase gets nudged toward memory. Default: 0.3.
	StabilizeThreshold float64 `yaml:"stabilize_threshold"`

	// StabilizeGain scales that nudge. Default: 0.1.
	StabilizeGain float64 `yaml:"stabilize_gain"`

	// WorldBlend is the self weight when a world field is present. Default: 0.9.
	WorldBlend float64 `yaml:"world_blend"`

	// DormantMax, EmergingMax, AwareMax and ConsciousMax are the upper
	// coherence bounds of the first four levels. Defaults: 0.2, 0.4,
	// 0.6, 0.8.
	DormantMax   float64 `yaml:"dormant_max"`
	EmergingMax  float64 `yaml:"emerging_max"`
	AwareMax     float64 `yaml:"aware_max"`
	ConsciousMax float64 `yaml:"conscious_max"`

	// Initial is the awareness field before any observation.
	Initial field.Field `yaml:"initial"`
}

// DefaultConfig returns the default awareness constants.
func DefaultConfig() Config {
	return Config{
		TrendWindow:        20,
		MinSamples:         3,
		DriftThreshold:     0.01,
		TensionRetention:   0.9,
		DriftPull:          0.5,
		SettlePull:         -0.2,
		SmoothFactor:       0.95,
		RoughenFactor:      1.02,
		StabilityQuorum:    2,
		PhaseTrack:         0.3,
		CriteriaSlack:      0.01,
		CriteriaQuorum:     3,
		DecayQuorum:        1,
		GrowthRate:         1.02,
		GrowthBonus:        0.01,
		GrowthCoherence:    0.015,
		DecayRate:          0.98,
		DecayCoherence:     0.005,
		EnergyFloor:        0.01,
		CoherenceFloor:     0.01,
		StabilizeThreshold: 0.3,
		StabilizeGain:      0.1,
		WorldBlend:         0.9,
		DormantMax:         0.2,
		EmergingMax:        0.4,
		AwareMax:           0.6,
		ConsciousMax:       0.8,
		Initial: field.Field{
			Tension:   0.05,
			Curvature: 0.2,
			Energy:    0.1,
			Coherence: 0.1,
		},
	}
}

// LevelFor grades a coherence value using the configured thresholds.
func (c Config) LevelFor(coherence float64) Level {
	switch {
	case coherence < c.DormantMax:
		return LevelDormant
	case coherence < c.EmergingMax:
		return LevelEmerging
	case coherence < c.AwareMax:
		return LevelAware
	case coherence < c.ConsciousMax:
		return LevelConscious
	default:
		return LevelFullyConscious
	}
}

// Monitor is the awareness field plus its trend buffers. It is owned
// by a single evolution session and is not safe for concurrent use.
type Monitor struct {
	config Config
	bounds field.Bounds
	state  field.Field

	coherence  []float64
	curvature  []float64
	divergence []float64
	alignment  []float64
}

// NewMonitor creates a monitor seeded with the configured initial field.
func NewMonitor(config Config, bounds field.Bounds) *Monitor {
	return &Monitor{
		config: config,
		bounds: bounds,
		state:  config.Initial.Clamp(bounds),
	}
}

// State returns the current awareness field.
func (m *Monitor) State() field.Field {
	return m.state
}

// Level grades the current awareness coherence.
func (m *Monitor) Level() Level {
	return m.config.LevelFor(m.state.Coherence)
}

// Observe folds one evolution step into the awareness field and
// returns the main state, phase-stabilized toward memory when
// awareness itself is coherent enough.
func (m *Monitor) Observe(cur, mem field.Field, world *field.Field) field.Field {
	eps := m.bounds.Epsilon

	m.coherence = pushBounded(m.coherence, cur.Coherence, m.config.TrendWindow)
	m.curvature = pushBounded(m.curvature, cur.Curvature, m.config.TrendWindow)
	m.divergence = pushBounded(m.divergence, cur.Dist(mem, eps), m.config.TrendWindow)
	m.alignment = pushBounded(m.alignment, cur.Inner(mem, eps), m.config.TrendWindow)

	cTrend := m.trendOf(m.coherence)
	kTrend := m.trendOf(m.curvature)
	dTrend := m.trendOf(m.divergence)
	aTrend := m.trendOf(m.alignment)

	st := m.state

	// Tension relaxes toward a drift-dependent target.
	pull := m.config.SettlePull
	if dTrend > m.config.DriftThreshold {
		pull = m.config.DriftPull
	}
	st.Tension = m.config.TensionRetention*st.Tension + (1-m.config.TensionRetention)*pull
	st.Tension = clampAbs(st.Tension, 1)

	// Curvature smooths while enough trends hold steady.
	stability := 0
	if cTrend >= 0 {
		stability++
	}
	if kTrend <= 0 {
		stability++
	}
	if dTrend <= 0 {
		stability++
	}
	if stability >= m.config.StabilityQuorum {
		st.Curvature *= m.config.SmoothFactor
	} else {
		st.Curvature *= m.config.RoughenFactor
	}

	// Phase tracks the main field.
	st.Phase += m.config.PhaseTrack * field.WrapDelta(st.Phase, cur.Phase)

	// The growth criteria: coherence not falling, curvature not rising,
	// divergence not rising, alignment not falling.
	met := 0
	if cTrend >= -m.config.CriteriaSlack {
		met++
	}
	if kTrend <= m.config.CriteriaSlack {
		met++
	}
	if dTrend <= m.config.CriteriaSlack {
		met++
	}
	if aTrend >= -m.config.CriteriaSlack {
		met++
	}
	switch {
	case met >= m.config.CriteriaQuorum:
		st.Energy = math.Min(1, st.Energy*m.config.GrowthRate+m.config.GrowthBonus)
		st.Coherence = math.Min(1, st.Coherence+m.config.GrowthCoherence)
	case met <= m.config.DecayQuorum:
		st.Energy = math.Max(m.config.EnergyFloor, st.Energy*m.config.DecayRate)
		st.Coherence = math.Max(m.config.CoherenceFloor, st.Coherence-m.config.DecayCoherence)
	}

	if world != nil {
		st = st.Blend(*world, m.config.WorldBlend, m.bounds)
	}
	m.state = st.Clamp(m.bounds)

	// Conscious stabilization: a coherent awareness field nudges the
	// main phase toward memory.
	if m.state.Coherence > m.config.StabilizeThreshold {
		cur.Phase += m.config.StabilizeGain * m.state.Coherence * math.Sin(mem.Phase-cur.Phase)
		cur = cur.Clamp(m.bounds)
	}
	return cur
}

// trendOf is the average per-sample movement across the buffer, zero
// until MinSamples have accumulated.
func (m *Monitor) trendOf(buf []float64) float64 {
	if len(buf) < m.config.MinSamples {
		return 0
	}
	return (buf[len(buf)-1] - buf[0]) / float64(len(buf))
}

func pushBounded(buf []float64, v float64, size int) []float64 {
	buf = append(buf, v)
	if len(buf) > size {
		buf = buf[1:]
	}
	return buf
}

func clampAbs(x, limit float64) float64 {
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}
