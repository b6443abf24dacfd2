// Package temporal keeps the phase history of an evolution session and
// looks for periodicity in it. Detection is a wrap-aware
// autocorrelation: a period counts as a cycle when the recent phases
// agree with the phases one period earlier.
package temporal

import (
	"math"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

// Config holds the tunable constants of cycle detection.
type Config struct {
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

// DefaultConfig returns the default temporal constants.
func DefaultConfig() Config {
	return Config{
		Window:     100,
		MinPeriod:  3,
		MaxPeriod:  20,
		Confidence: 0.8,
	}
}

// Cycle is one detected periodicity.
type Cycle struct {
	Period     int
	Confidence float64
}

// Tracker records phases and detects cycles over them. It is owned by
// a single engine and is not safe for concurrent use.
type Tracker struct {
	config Config
	phases []float64
}

// NewTracker creates an empty tracker.
func NewTracker(config Config) *Tracker {
	return &Tracker{config: config}
}

// Record appends one phase sample, wrapped to [0, 2pi).
func (t *Tracker) Record(theta float64) {
	t.phases = append(t.phases, field.WrapAngle(theta))
	if len(t.phases) > t.config.Window {
		t.phases = t.phases[1:]
	}
}

// Len returns the number of recorded samples.
func (t *Tracker) Len() int {
	return len(t.phases)
}

// Cycles returns every period whose autocorrelation clears the
// confidence threshold, in ascending period order. A period needs two
// full repetitions of history before it is considered.
func (t *Tracker) Cycles() []Cycle {
	var out []Cycle
	for p := t.config.MinPeriod; p <= t.config.MaxPeriod; p++ {
		if len(t.phases) < 2*p {
			break
		}
		conf := t.correlation(p)
		if conf > t.config.Confidence {
			out = append(out, Cycle{Period: p, Confidence: conf})
		}
	}
	return out
}

// Predict extrapolates the next horizon phases. With a detected cycle
// it replays the cycle; with plain history it continues the mean
// drift; a single sample just holds. Returns nil without history.
func (t *Tracker) Predict(horizon int) []float64 {
	if horizon <= 0 || len(t.phases) == 0 {
		return nil
	}
	out := make([]float64, horizon)

	if best, ok := t.bestCycle(); ok {
		n := len(t.phases)
		for k := 0; k < horizon; k++ {
			out[k] = t.phases[n-best.Period+k%best.Period]
		}
		return out
	}

	last := t.phases[len(t.phases)-1]
	if len(t.phases) == 1 {
		for k := range out {
			out[k] = last
		}
		return out
	}

	var drift float64
	for i := 1; i < len(t.phases); i++ {
		drift += field.WrapDelta(t.phases[i-1], t.phases[i])
	}
	drift /= float64(len(t.phases) - 1)
	for k := range out {
		out[k] = field.WrapAngle(last + float64(k+1)*drift)
	}
	return out
}

// correlation is the mean phase agreement between the last p samples
// and the p samples one period earlier, in [0, 1] for aligned history.
func (t *Tracker) correlation(p int) float64 {
	n := len(t.phases)
	var sum float64
	for i := n - p; i < n; i++ {
		d := field.WrapDelta(t.phases[i-p], t.phases[i])
		sum += 1 - math.Abs(d)/math.Pi
	}
	return sum / float64(p)
}

// bestCycle picks the highest-confidence cycle, shortest period on
// ties.
func (t *Tracker) bestCycle() (Cycle, bool) {
	cycles := t.Cycles()
	if len(cycles) == 0 {
		return Cycle{}, false
	}
	best := cycles[0]
	for _, c := range cycles[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}
