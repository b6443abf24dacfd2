// Package superpose holds several candidate readings of one input at
// once. Amplitudes start uniform, shift by the Boltzmann factor of
// each candidate's loss, and collapse to the strongest reading.
package superpose

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Config holds the tunable constants of superposition.
type Config struct {
	// Beta is the inverse temperature of Boltzmann reweighting. Higher
	// values separate candidates harder. Default: 5.
	Beta float64 `yaml:"beta"`
}

// DefaultConfig returns the default superposition constants.
func DefaultConfig() Config {
	return Config{Beta: 5}
}

// Candidate is one reading of the input with its current amplitude.
type Candidate struct {
	Label     string
	State     field.Field
	Amplitude float64
}

// Superposition is an amplitude-weighted candidate set. Not safe for
// concurrent use.
type Superposition struct {
	config     Config
	candidates []Candidate
}

// NewSuperposition starts a superposition over the given readings with
// uniform amplitudes 1/sqrt(n). Provided amplitudes are ignored.
func NewSuperposition(config Config, candidates []Candidate) *Superposition {
	s := &Superposition{
		config:     config,
		candidates: make([]Candidate, len(candidates)),
	}
	copy(s.candidates, candidates)
	if len(s.candidates) > 0 {
		amp := 1 / math.Sqrt(float64(len(s.candidates)))
		for i := range s.candidates {
			s.candidates[i].Amplitude = amp
		}
	}
	return s
}

// Len returns the number of live candidates.
func (s *Superposition) Len() int {
	return len(s.candidates)
}

// Candidates returns a copy of the live candidates in their original
// order.
func (s *Superposition) Candidates() []Candidate {
	out := make([]Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Evolve reweights every amplitude by the Boltzmann factor of its
// candidate's loss and renormalizes so the squared amplitudes sum to
// one. Lower loss grows amplitude.
func (s *Superposition) Evolve(loss func(field.Field) float64) {
	if len(s.candidates) == 0 {
		return
	}

	// Shift by the minimum loss so the exponentials stay in range; the
	// normalization cancels the shift.
	losses := make([]float64, len(s.candidates))
	minLoss := math.Inf(1)
	for i, c := range s.candidates {
		losses[i] = loss(c.State)
		if losses[i] < minLoss {
			minLoss = losses[i]
		}
	}

	var norm float64
	for i := range s.candidates {
		s.candidates[i].Amplitude *= math.Exp(-s.config.Beta * (losses[i] - minLoss))
		norm += s.candidates[i].Amplitude * s.candidates[i].Amplitude
	}
	norm = math.Sqrt(norm)
	for i := range s.candidates {
		s.candidates[i].Amplitude /= norm
	}
}

// Collapse resolves the superposition to its strongest candidate and
// returns it with its amplitude set to one. The earliest candidate
// wins ties. Collapsing an already collapsed superposition returns the
// same winner; ok is false only for an empty set.
func (s *Superposition) Collapse() (Candidate, bool) {
	if len(s.candidates) == 0 {
		return Candidate{}, false
	}
	best := 0
	for i := 1; i < len(s.candidates); i++ {
		if s.candidates[i].Amplitude > s.candidates[best].Amplitude {
			best = i
		}
	}
	winner := s.candidates[best]
	winner.Amplitude = 1
	s.candidates = []Candidate{winner}
	return winner, true
}

// Bridge is the one-shot resolver: superpose, one Boltzmann evolution,
// collapse.
type Bridge struct {
	config Config
}

// NewBridge creates a bridge.
func NewBridge(config Config) *Bridge {
	return &Bridge{config: config}
}

// Resolve weighs the candidates against the loss and returns the
// winning reading. ok is false with no candidates.
func (b *Bridge) Resolve(candidates []Candidate, loss func(field.Field) float64) (Candidate, bool) {
	s := NewSuperposition(b.config, candidates)
	s.Evolve(loss)
	return s.Collapse()
}
