// Package world accumulates external context sources into a single
// consensus field. Sources carry a domain label; disagreement across
// domains is surfaced as incoherence pairs instead of being averaged
// away silently.
package world

import (
	"sort"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Source is one registered contribution to the world field.
type Source struct {
	ID     string
	Domain string
	State  field.Field
}

// Incoherence is a cross-domain disagreement between two sources.
type Incoherence struct {
	From      string
	To        string
	Magnitude float64
}

// Config holds the tunable constants of world aggregation.
type Config struct {
	// IncoherenceThreshold is the field distance above which two
	// sources from different domains count as incoherent. Default: 0.3.
	IncoherenceThreshold float64 `yaml:"incoherence_threshold"`
}

// DefaultConfig returns the default world constants.
func DefaultConfig() Config {
	return Config{IncoherenceThreshold: 0.3}
}

// Matrix holds the registered sources of one engine. Aggregation walks
// sources in id order, so results never depend on registration order.
// Not safe for concurrent use.
type Matrix struct {
	config  Config
	bounds  field.Bounds
	sources map[string]Source
}

// NewMatrix creates an empty matrix.
func NewMatrix(config Config, bounds field.Bounds) *Matrix {
	return &Matrix{
		config:  config,
		bounds:  bounds,
		sources: make(map[string]Source),
	}
}

// Register adds a source, replacing any previous state under the same
// id. Sources accumulate for the lifetime of the matrix.
func (m *Matrix) Register(id, domain string, st field.Field) {
	m.sources[id] = Source{ID: id, Domain: domain, State: st.Clamp(m.bounds)}
}

// Len returns the number of registered sources.
func (m *Matrix) Len() int {
	return len(m.sources)
}

// Sources returns the registered sources in id order.
func (m *Matrix) Sources() []Source {
	out := make([]Source, 0, len(m.sources))
	for _, id := range m.ids() {
		out = append(out, m.sources[id])
	}
	return out
}

// Field returns the consensus field over all sources, or nil when none
// are registered. Tension and curvature average, phase averages
// circularly, energy sums, and coherence is the phase resultant.
func (m *Matrix) Field() *field.Field {
	if len(m.sources) == 0 {
		return nil
	}
	out := aggregate(m.Sources()).Clamp(m.bounds)
	return &out
}

// Domains returns the consensus field of each domain.
func (m *Matrix) Domains() map[string]field.Field {
	buckets := make(map[string][]Source)
	for _, src := range m.Sources() {
		buckets[src.Domain] = append(buckets[src.Domain], src)
	}
	out := make(map[string]field.Field, len(buckets))
	for domain, srcs := range buckets {
		out[domain] = aggregate(srcs).Clamp(m.bounds)
	}
	return out
}

// Incoherences returns every cross-domain source pair whose field
// distance exceeds the threshold, largest first. Returns nil when the
// world agrees with itself.
func (m *Matrix) Incoherences() []Incoherence {
	srcs := m.Sources()
	var out []Incoherence
	for i := 0; i < len(srcs); i++ {
		for j := i + 1; j < len(srcs); j++ {
			if srcs[i].Domain == srcs[j].Domain {
				continue
			}
			d := srcs[i].State.Dist(srcs[j].State, m.bounds.Epsilon)
			if d > m.config.IncoherenceThreshold {
				out = append(out, Incoherence{
					From:      srcs[i].ID,
					To:        srcs[j].ID,
					Magnitude: d,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Magnitude != out[j].Magnitude {
			return out[i].Magnitude > out[j].Magnitude
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func (m *Matrix) ids() []string {
	ids := make([]string, 0, len(m.sources))
	for id := range m.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// aggregate folds an ordered, non-empty source slice into one field.
func aggregate(srcs []Source) field.Field {
	var tension, curvature, energy float64
	phases := make([]float64, 0, len(srcs))
	for _, src := range srcs {
		tension += src.State.Tension
		curvature += src.State.Curvature
		energy += src.State.Energy
		phases = append(phases, src.State.Phase)
	}
	n := float64(len(srcs))
	return field.Field{
		Tension:   tension / n,
		Curvature: curvature / n,
		Phase:     field.CircularMean(phases),
		Energy:    energy,
		Coherence: field.Resultant(phases),
	}
}
