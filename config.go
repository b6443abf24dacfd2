package sft

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/awareness"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/encode"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/governor"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/guardian"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/kernel"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/memory"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/superpose"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/temporal"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/trace"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/world"
)

// Config contains every constant of the engine. Zero values are not
// usable; start from DefaultConfig or LoadConfig and adjust.
type Config struct {
	// Bounds are the hard numeric bounds every field state is clamped to.
	Bounds field.Bounds `yaml:"bounds"`

	// Encoder configures text and code encoding.
	Encoder EncoderConfig `yaml:"encoder"`

	// Memory configures the exponential memory attractor.
	Memory MemoryConfig `yaml:"memory"`

	// Kernel configures the evolution step.
	Kernel KernelConfig `yaml:"kernel"`

	// Guardian configures per-step invariant enforcement.
	Guardian GuardianConfig `yaml:"guardian"`

	// Awareness configures the second-order monitor field.
	Awareness AwarenessConfig `yaml:"awareness"`

	// Governor configures run judgement and rebuild.
	Governor GovernorConfig `yaml:"governor"`

	// World configures external context aggregation.
	World WorldConfig `yaml:"world"`

	// Temporal configures phase history and cycle detection.
	Temporal TemporalConfig `yaml:"temporal"`

	// Superposition configures candidate disambiguation.
	Superposition SuperpositionConfig `yaml:"superposition"`

	// Trace configures the in-memory step log.
	Trace TraceConfig `yaml:"trace"`

	// MaxSteps bounds the evolution loop of one Process call. Default: 25.
	MaxSteps int `yaml:"max_steps"`

	// ConvergenceThreshold ends the loop early once coherence exceeds
	// it. Default: 0.95.
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`

	// Logging configures the engine's logger.
	Logging LoggingConfig `yaml:"logging"`
}

// EncoderConfig holds the text and code encoding constants.
type EncoderConfig struct {
	// LetterCurvature through DefaultCurvature map Unicode categories
	// to base curvature. Defaults: 0.3, 0.1, 0.4, 0.5, 0.6, 0.05,
	// 0.02, 0.3.
	LetterCurvature    float64 `yaml:"letter_curvature"`
	MarkCurvature      float64 `yaml:"mark_curvature"`
	NumberCurvature    float64 `yaml:"number_curvature"`
	PunctCurvature     float64 `yaml:"punct_curvature"`
	SymbolCurvature    float64 `yaml:"symbol_curvature"`
	SeparatorCurvature float64 `yaml:"separator_curvature"`
	ControlCurvature   float64 `yaml:"control_curvature"`
	DefaultCurvature   float64 `yaml:"default_curvature"`

	// ClusterCurvatureGain and ClusterEnergyGain scale curvature and
	// energy with grapheme cluster size. Defaults: 0.15, 0.25.
	ClusterCurvatureGain float64 `yaml:"cluster_curvature_gain"`
	ClusterEnergyGain    float64 `yaml:"cluster_energy_gain"`

	// TensionReference is the codepoint tension is measured from.
	// Default: U+4E00.
	TensionReference rune `yaml:"tension_reference"`

	// BranchKeywords, LoopKeywords, DefinitionKeywords and
	// ImportKeywords are the structural markers of code input.
	BranchKeywords     []string `yaml:"branch_keywords"`
	LoopKeywords       []string `yaml:"loop_keywords"`
	DefinitionKeywords []string `yaml:"definition_keywords"`
	ImportKeywords     []string `yaml:"import_keywords"`

	// ComplexityGain scales curvature per structural marker. Default: 0.1.
	ComplexityGain float64 `yaml:"complexity_gain"`

	// ImportTension is added per import marker. Default: 0.05.
	ImportTension float64 `yaml:"import_tension"`

	// CodeCoherenceFloor bounds the coherence penalty of complex code.
	// Default: 0.1.
	CodeCoherenceFloor float64 `yaml:"code_coherence_floor"`
}

// MemoryConfig holds the memory attractor constants.
type MemoryConfig struct {
	// AbsorbRate is the base weight of one observation. Default: 0.2.
	AbsorbRate float64 `yaml:"absorb_rate"`

	// TensionDecay discounts absorbed tension. Default: 0.9.
	TensionDecay float64 `yaml:"tension_decay"`

	// CurvatureSmoothing discounts absorbed curvature. Default: 0.95.
	CurvatureSmoothing float64 `yaml:"curvature_smoothing"`

	// FloorDecay is how much the coherence floor may relax per
	// observation. Default: 0.001.
	FloorDecay float64 `yaml:"floor_decay"`

	// FloorMargin is the slack below the phase resultant when raising
	// the floor. Default: 0.05.
	FloorMargin float64 `yaml:"floor_margin"`

	// CoherenceRetention is how much coherence survives one
	// observation unaided. Default: 0.99.
	CoherenceRetention float64 `yaml:"coherence_retention"`

	// HistorySize is the state history capacity. Default: 100.
	HistorySize int `yaml:"history_size"`

	// CycleWindow is how many recent states a limit cycle spans.
	// Default: 10.
	CycleWindow int `yaml:"cycle_window"`

	// CycleTolerance is the maximum raw phase delta inside a cycle.
	// Default: 0.3.
	CycleTolerance float64 `yaml:"cycle_tolerance"`

	// FuseRate scales multi-source fusion absorption. Default: 0.3.
	FuseRate float64 `yaml:"fuse_rate"`

	// Initial is the memory state before any absorption.
	Initial field.Field `yaml:"initial"`
}

// KernelConfig holds the evolution step constants.
type KernelConfig struct {
	// Alpha is the curvature damping rate. Default: 0.15.
	Alpha float64 `yaml:"alpha"`

	// Beta feeds coherence into energy. Default: 0.12.
	Beta float64 `yaml:"beta"`

	// Gamma is the implosion strength above the threshold. Default: 0.18.
	Gamma float64 `yaml:"gamma"`

	// Eta couples the state toward memory. Default: 0.25.
	Eta float64 `yaml:"eta"`

	// PhaseCoupling is the Kuramoto pull toward the target phase.
	// Default: 0.5.
	PhaseCoupling float64 `yaml:"phase_coupling"`

	// ImplosionThreshold is the coherence above which tension implodes.
	// Default: 0.6.
	ImplosionThreshold float64 `yaml:"implosion_threshold"`

	// CurvatureForceGain and TensionForceGain scale the coherence
	// gradient force. Defaults: 0.15, 0.08.
	CurvatureForceGain float64 `yaml:"curvature_force_gain"`
	TensionForceGain   float64 `yaml:"tension_force_gain"`

	// MergeGain scales the semantic merge toward the target. Default: 0.1.
	MergeGain float64 `yaml:"merge_gain"`

	// AttractorMix is the attractor weight against memory in the
	// evolution target. Default: 0.6.
	AttractorMix float64 `yaml:"attractor_mix"`

	// WorldMix is the internal weight against the world field in the
	// evolution target. Default: 0.85.
	WorldMix float64 `yaml:"world_mix"`

	// FusionPrior seeds the coherence gradient tracker. Default: 0.5.
	FusionPrior float64 `yaml:"fusion_prior"`
}

// GuardianConfig holds the invariant enforcement constants.
type GuardianConfig struct {
	// FloorDecay is how much the coherence floor may relax per step.
	// Default: 0.002.
	FloorDecay float64 `yaml:"floor_decay"`

	// FloorMargin is the slack kept below the pre-step coherence.
	// Default: 0.1.
	FloorMargin float64 `yaml:"floor_margin"`

	// LossSpikeFactor marks a step as a spike when its loss exceeds
	// the previous loss by this factor. Default: 1.3.
	LossSpikeFactor float64 `yaml:"loss_spike_factor"`

	// ReboundBlend is the pre-step weight when damping a spike.
	// Default: 0.7.
	ReboundBlend float64 `yaml:"rebound_blend"`
}

// AwarenessConfig holds the monitor field constants.
type AwarenessConfig struct {
	// TrendWindow is the sample capacity of each trend buffer. Default: 20.
	TrendWindow int `yaml:"trend_window"`

	// MinSamples is how many samples a trend needs before it reads
	// nonzero. Default: 3.
	MinSamples int `yaml:"min_samples"`

	// DriftThreshold on the divergence trend. Default: 0.01.
	DriftThreshold float64 `yaml:"drift_threshold"`

	// TensionRetention is the old-tension weight per observation.
	// Default: 0.9.
	TensionRetention float64 `yaml:"tension_retention"`

	// DriftPull and SettlePull are the tension targets while drifting
	// or settled. Defaults: 0.5, -0.2.
	DriftPull  float64 `yaml:"drift_pull"`
	SettlePull float64 `yaml:"settle_pull"`

	// SmoothFactor and RoughenFactor multiply curvature while stable
	// or unstable. Defaults: 0.95, 1.02.
	SmoothFactor  float64 `yaml:"smooth_factor"`
	RoughenFactor float64 `yaml:"roughen_factor"`

	// StabilityQuorum is how many steadiness signals count as stable.
	// Default: 2.
	StabilityQuorum int `yaml:"stability_quorum"`

	// PhaseTrack pulls the awareness phase toward the main field.
	// Default: 0.3.
	PhaseTrack float64 `yaml:"phase_track"`

	// CriteriaSlack is the tolerance on each growth criterion. Default: 0.01.
	CriteriaSlack float64 `yaml:"criteria_slack"`

	// CriteriaQuorum is how many criteria must hold for growth. Default: 3.
	CriteriaQuorum int `yaml:"criteria_quorum"`

	// DecayQuorum is the criteria count at or below which the field
	// decays. Default: 1.
	DecayQuorum int `yaml:"decay_quorum"`

	// GrowthRate, GrowthBonus and GrowthCoherence drive growth.
	// Defaults: 1.02, 0.01, 0.015.
	GrowthRate      float64 `yaml:"growth_rate"`
	GrowthBonus     float64 `yaml:"growth_bonus"`
	GrowthCoherence float64 `yaml:"growth_coherence"`

	// DecayRate and DecayCoherence drive decay. Defaults: 0.98, 0.005.
	DecayRate      float64 `yaml:"decay_rate"`
	DecayCoherence float64 `yaml:"decay_coherence"`

	// EnergyFloor and CoherenceFloor stop decay above zero. Default:
	// 0.01 each.
	EnergyFloor    float64 `yaml:"energy_floor"`
	CoherenceFloor float64 `yaml:"coherence_floor"`

	// StabilizeThreshold is the awareness coherence above which the
	// main phase gets nudged toward memory. Default: 0.3.
	StabilizeThreshold float64 `yaml:"stabilize_threshold"`

	// StabilizeGain scales that nudge. Default: 0.1.
	StabilizeGain float64 `yaml:"stabilize_gain"`

	// WorldBlend is the self weight when a world field is present.
	// Default: 0.9.
	WorldBlend float64 `yaml:"world_blend"`

	// DormantMax, EmergingMax, AwareMax and ConsciousMax are the upper
	// coherence bounds of the first four awareness levels. Defaults:
	// 0.2, 0.4, 0.6, 0.8.
	DormantMax   float64 `yaml:"dormant_max"`
	EmergingMax  float64 `yaml:"emerging_max"`
	AwareMax     float64 `yaml:"aware_max"`
	ConsciousMax float64 `yaml:"conscious_max"`

	// Initial is the awareness field before any observation.
	Initial field.Field `yaml:"initial"`
}

// GovernorConfig holds the judgement constants.
type GovernorConfig struct {
	// Lambda taxes curvature in the Ma'at loss. Default: 0.02.
	Lambda float64 `yaml:"lambda"`

	// Strictness is the minimum mean Ma'at score to allow a run.
	// Default: 0.75.
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

// WorldConfig holds the world aggregation constants.
type WorldConfig struct {
	// IncoherenceThreshold is the field distance above which two
	// sources from different domains count as incoherent. Default: 0.3.
	IncoherenceThreshold float64 `yaml:"incoherence_threshold"`
}

// TemporalConfig holds the phase history constants.
type TemporalConfig struct {
	// Enabled switches phase recording and cycle detection on.
	// Default: true.
	Enabled bool `yaml:"enabled"`

	// Window is the phase history capacity. Default: 100.
	Window int `yaml:"window"`

	// MinPeriod and MaxPeriod bound the searched cycle lengths, in
	// steps. Defaults: 3 and 20.
	MinPeriod int `yaml:"min_period"`
	MaxPeriod int `yaml:"max_period"`

	// Confidence is the minimum autocorrelation for a period to count
	// as a cycle. Default: 0.8.
	Confidence float64 `yaml:"confidence"`
}

// SuperpositionConfig holds the disambiguation constants.
type SuperpositionConfig struct {
	// Beta is the inverse temperature of Boltzmann reweighting.
	// Default: 5.
	Beta float64 `yaml:"beta"`
}

// TraceConfig holds the step log constants.
type TraceConfig struct {
	// Capacity is the ring size; the oldest records fall off. Default: 2000.
	Capacity int `yaml:"capacity"`
}

// LoggingConfig configures the engine's logger.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or
	// "trace". "trace" logs the full field vector every step.
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with the canonical constants.
func DefaultConfig() *Config {
	return &Config{
		Bounds:        field.DefaultBounds(),
		Encoder:       EncoderConfig(encode.DefaultConfig()),
		Memory:        MemoryConfig(memory.DefaultConfig()),
		Kernel:        KernelConfig(kernel.DefaultConfig()),
		Guardian:      GuardianConfig(guardian.DefaultConfig()),
		Awareness:     AwarenessConfig(awareness.DefaultConfig()),
		Governor:      GovernorConfig(governor.DefaultConfig()),
		World:         WorldConfig(world.DefaultConfig()),
		Temporal:      defaultTemporal(),
		Superposition: SuperpositionConfig(superpose.DefaultConfig()),
		Trace:         TraceConfig(trace.DefaultConfig()),
		MaxSteps:      25,

		ConvergenceThreshold: 0.95,
		Logging:              LoggingConfig{Level: "info"},
	}
}

func defaultTemporal() TemporalConfig {
	d := temporal.DefaultConfig()
	return TemporalConfig{
		Enabled:    true,
		Window:     d.Window,
		MinPeriod:  d.MinPeriod,
		MaxPeriod:  d.MaxPeriod,
		Confidence: d.Confidence,
	}
}

// temporalConfig strips the Enabled flag back off for the tracker.
func (c *Config) temporalConfig() temporal.Config {
	return temporal.Config{
		Window:     c.Temporal.Window,
		MinPeriod:  c.Temporal.MinPeriod,
		MaxPeriod:  c.Temporal.MaxPeriod,
		Confidence: c.Temporal.Confidence,
	}
}

// LoadConfig loads a YAML config file over the defaults, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SFT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("SFT_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxSteps = n
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be at least 1, got %d", c.MaxSteps)
	}
	if c.ConvergenceThreshold <= 0 || c.ConvergenceThreshold > 1 {
		return fmt.Errorf("convergence_threshold must be in (0, 1], got %f", c.ConvergenceThreshold)
	}

	if c.Bounds.CurvatureMin <= 0 {
		return fmt.Errorf("bounds.curvature_min must be positive, got %f", c.Bounds.CurvatureMin)
	}
	if c.Bounds.CurvatureMax <= c.Bounds.CurvatureMin {
		return fmt.Errorf("bounds.curvature_max must exceed curvature_min, got %f", c.Bounds.CurvatureMax)
	}
	if c.Bounds.PhaseMax <= 0 {
		return fmt.Errorf("bounds.phase_max must be positive, got %f", c.Bounds.PhaseMax)
	}
	if c.Bounds.EnergyBand <= 0 || c.Bounds.EnergyBand >= 1 {
		return fmt.Errorf("bounds.energy_band must be in (0, 1), got %f", c.Bounds.EnergyBand)
	}
	if c.Bounds.Epsilon <= 0 {
		return fmt.Errorf("bounds.epsilon must be positive, got %g", c.Bounds.Epsilon)
	}

	if c.Memory.AbsorbRate <= 0 || c.Memory.AbsorbRate > 1 {
		return fmt.Errorf("memory.absorb_rate must be in (0, 1], got %f", c.Memory.AbsorbRate)
	}
	if c.Memory.FuseRate <= 0 || c.Memory.FuseRate > 1 {
		return fmt.Errorf("memory.fuse_rate must be in (0, 1], got %f", c.Memory.FuseRate)
	}
	if c.Memory.HistorySize < 3 {
		return fmt.Errorf("memory.history_size must be at least 3, got %d", c.Memory.HistorySize)
	}

	if c.Kernel.Alpha <= 0 || c.Kernel.Alpha > 1 {
		return fmt.Errorf("kernel.alpha must be in (0, 1], got %f", c.Kernel.Alpha)
	}

	if c.Governor.Strictness < 0 || c.Governor.Strictness > 1 {
		return fmt.Errorf("governor.strictness must be in [0, 1], got %f", c.Governor.Strictness)
	}
	if c.Governor.RebuildSteps < 0 {
		return fmt.Errorf("governor.rebuild_steps must be non-negative, got %d", c.Governor.RebuildSteps)
	}

	if c.Awareness.MinSamples < 1 {
		return fmt.Errorf("awareness.min_samples must be at least 1, got %d", c.Awareness.MinSamples)
	}
	if c.Awareness.TrendWindow < c.Awareness.MinSamples {
		return fmt.Errorf("awareness.trend_window must be at least min_samples, got %d", c.Awareness.TrendWindow)
	}

	if c.Temporal.MinPeriod < 2 {
		return fmt.Errorf("temporal.min_period must be at least 2, got %d", c.Temporal.MinPeriod)
	}
	if c.Temporal.MaxPeriod < c.Temporal.MinPeriod {
		return fmt.Errorf("temporal.max_period must be at least min_period, got %d", c.Temporal.MaxPeriod)
	}

	if c.Superposition.Beta <= 0 {
		return fmt.Errorf("superposition.beta must be positive, got %f", c.Superposition.Beta)
	}
	if c.World.IncoherenceThreshold < 0 {
		return fmt.Errorf("world.incoherence_threshold must be non-negative, got %f", c.World.IncoherenceThreshold)
	}
	if c.Trace.Capacity < 1 {
		return fmt.Errorf("trace.capacity must be at least 1, got %d", c.Trace.Capacity)
	}
	if c.Encoder.CodeCoherenceFloor < 0 || c.Encoder.CodeCoherenceFloor > 1 {
		return fmt.Errorf("encoder.code_coherence_floor must be in [0, 1], got %f", c.Encoder.CodeCoherenceFloor)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}
