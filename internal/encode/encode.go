// Package encode maps raw text and source code onto semantic field states.
// The text walk is grapheme-cluster based so multi-rune glyphs (emoji ZWJ
// sequences, flag pairs, combining marks) encode as single units.
package encode

import (
	"math"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// maxCodepoint is the top of the Unicode codespace, the normalization
// reference for tension and energy.
const maxCodepoint = 0x10FFFF

// phi is the golden ratio, used to scatter per-cluster phases.
var phi = (1 + math.Sqrt(5)) / 2

// Config holds the tunable constants of the text and code encoders.
type Config struct {
	// LetterCurvature is the base curvature for letter runes (category L). Default: 0.3.
	LetterCurvature float64 `yaml:"letter_curvature"`

	// MarkCurvature is the base curvature for combining marks (category M). Default: 0.1.
	MarkCurvature float64 `yaml:"mark_curvature"`

	// NumberCurvature is the base curvature for numeric runes (category N). Default: 0.4.
	NumberCurvature float64 `yaml:"number_curvature"`

	// PunctCurvature is the base curvature for punctuation (category P). Default: 0.5.
	PunctCurvature float64 `yaml:"punct_curvature"`

	// SymbolCurvature is the base curvature for symbols (category S). Default: 0.6.
	SymbolCurvature float64 `yaml:"symbol_curvature"`

	// SeparatorCurvature is the base curvature for separators (category Z). Default: 0.05.
	SeparatorCurvature float64 `yaml:"separator_curvature"`

	// ControlCurvature is the base curvature for control runes (category C). Default: 0.02.
	ControlCurvature float64 `yaml:"control_curvature"`

	// DefaultCurvature covers runes outside every category class. Default: 0.3.
	DefaultCurvature float64 `yaml:"default_curvature"`

	// ClusterCurvatureGain scales curvature with cluster length. Default: 0.15.
	ClusterCurvatureGain float64 `yaml:"cluster_curvature_gain"`

	// ClusterEnergyGain scales energy with cluster length. Default: 0.25.
	ClusterEnergyGain float64 `yaml:"cluster_energy_gain"`

	// TensionReference is the codepoint tension is measured from. Default: U+4E00.
	TensionReference rune `yaml:"tension_reference"`

	// BranchKeywords are the substrings counted as branching constructs.
	BranchKeywords []string `yaml:"branch_keywords"`

	// LoopKeywords are the substrings counted as loop constructs.
	LoopKeywords []string `yaml:"loop_keywords"`

	// DefinitionKeywords are the substrings counted as definitions.
	DefinitionKeywords []string `yaml:"definition_keywords"`

	// ImportKeywords are the substrings counted as imports.
	ImportKeywords []string `yaml:"import_keywords"`

	// ComplexityGain is the complexity added per structural keyword. Default: 0.1.
	ComplexityGain float64 `yaml:"complexity_gain"`

	// ImportTension is the tension added per import occurrence. Default: 0.05.
	ImportTension float64 `yaml:"import_tension"`

	// CodeCoherenceFloor is the minimum coherence of a code encoding. Default: 0.1.
	CodeCoherenceFloor float64 `yaml:"code_coherence_floor"`
}

// DefaultConfig returns the default encoder constants.
func DefaultConfig() Config {
	return Config{
		LetterCurvature:      0.3,
		MarkCurvature:        0.1,
		NumberCurvature:      0.4,
		PunctCurvature:       0.5,
		SymbolCurvature:      0.6,
		SeparatorCurvature:   0.05,
		ControlCurvature:     0.02,
		DefaultCurvature:     0.3,
		ClusterCurvatureGain: 0.15,
		ClusterEnergyGain:    0.25,
		TensionReference:     0x4E00,
		BranchKeywords:       []string{"if ", "elif ", "else"},
		LoopKeywords:         []string{"for ", "while "},
		DefinitionKeywords:   []string{"def ", "class ", "func "},
		ImportKeywords:       []string{"import "},
		ComplexityGain:       0.1,
		ImportTension:        0.05,
		CodeCoherenceFloor:   0.1,
	}
}

// Encoder maps strings onto field states. It is stateless and safe for
// concurrent use.
type Encoder struct {
	config Config
	bounds field.Bounds
}

// NewEncoder creates an encoder with the given constants and state bounds.
func NewEncoder(config Config, bounds field.Bounds) *Encoder {
	return &Encoder{config: config, bounds: bounds}
}

// Text encodes a string into one aggregated field state. Any input is
// accepted; strings with no visible grapheme clusters map to the default
// rest state.
//
// Per cluster, the primary (first) rune drives phase, curvature and
// tension; all runes contribute to energy. Aggregation uses the
// arithmetic mean for tension, the harmonic mean for curvature (a single
// soft cluster softens the whole encoding), the circular mean for phase,
// and the sum for energy. Coherence is the mean resultant length of the
// cluster phases: aligned clusters cohere, scattered ones do not.
func (e *Encoder) Text(s string) field.Field {
	clusters := splitClusters(s)
	if len(clusters) == 0 {
		return field.Default(e.bounds)
	}

	n := float64(len(clusters))
	var tension, invKappa, energy, sinSum, cosSum float64

	for i, cl := range clusters {
		primary := cl[0]
		size := float64(len(cl))

		hi := float64(primary / 256)
		lo := float64(primary % 256)
		theta := math.Mod(hi*phi+lo/256*2*math.Pi+float64(i)/n*math.Pi, 2*math.Pi)
		sinSum += math.Sin(theta)
		cosSum += math.Cos(theta)

		kappa := e.curvatureFor(primary) * (1 + e.config.ClusterCurvatureGain*size)
		invKappa += 1 / math.Max(kappa, e.bounds.Epsilon)

		tension += math.Abs(float64(primary)-float64(e.config.TensionReference)) / maxCodepoint

		var cpSum float64
		for _, r := range cl {
			cpSum += float64(r)
		}
		energy += math.Log(1+cpSum) / math.Log(maxCodepoint+1) * (1 + e.config.ClusterEnergyGain*size)
	}

	out := field.Field{
		Tension:   tension / n,
		Curvature: n / invKappa,
		Phase:     math.Atan2(sinSum, cosSum),
		Energy:    energy,
		Coherence: math.Hypot(sinSum, cosSum) / n,
	}
	return out.Clamp(e.bounds)
}

// Code encodes source text: the plain text encoding reshaped by a
// structural complexity proxy. Complexity is a naive substring count of
// control-flow keywords, not a parse; it only has to move curvature in
// the right direction. Structure raises curvature and lowers coherence,
// imports raise tension.
func (e *Encoder) Code(src string) field.Field {
	f := e.Text(src)

	structural := countAny(src, e.config.BranchKeywords) +
		countAny(src, e.config.LoopKeywords) +
		countAny(src, e.config.DefinitionKeywords)
	imports := countAny(src, e.config.ImportKeywords)

	complexity := 1 + e.config.ComplexityGain*float64(structural)
	f.Curvature *= complexity
	f.Tension += e.config.ImportTension * float64(imports)
	f.Coherence = math.Max(e.config.CodeCoherenceFloor, f.Coherence/complexity)
	return f.Clamp(e.bounds)
}

// curvatureFor maps a rune to its base curvature by Unicode general
// category class.
func (e *Encoder) curvatureFor(r rune) float64 {
	switch {
	case unicode.Is(unicode.L, r):
		return e.config.LetterCurvature
	case unicode.Is(unicode.M, r):
		return e.config.MarkCurvature
	case unicode.Is(unicode.N, r):
		return e.config.NumberCurvature
	case unicode.Is(unicode.P, r):
		return e.config.PunctCurvature
	case unicode.Is(unicode.S, r):
		return e.config.SymbolCurvature
	case unicode.Is(unicode.Z, r):
		return e.config.SeparatorCurvature
	case unicode.Is(unicode.C, r):
		return e.config.ControlCurvature
	default:
		return e.config.DefaultCurvature
	}
}

// splitClusters walks s as user-perceived characters (UAX #29 extended
// grapheme clusters), dropping whitespace-only clusters.
func splitClusters(s string) [][]rune {
	var out [][]rune
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if strings.TrimSpace(g.Str()) == "" {
			continue
		}
		out = append(out, g.Runes())
	}
	return out
}

// countAny sums the occurrence counts of every keyword in s.
func countAny(s string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(s, kw)
	}
	return total
}
