package world

import (
	"math"
	"testing"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

func TestMatrix_EmptyHasNoField(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	if got := m.Field(); got != nil {
		t.Errorf("Field() = %+v, want nil for an empty matrix", got)
	}
	if got := m.Incoherences(); got != nil {
		t.Errorf("Incoherences() = %v, want nil for an empty matrix", got)
	}
}

func TestMatrix_SingleSource(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("solo", "news", field.Field{Tension: 0.5, Curvature: 2, Phase: 1, Energy: 0.7, Coherence: 0.3})

	got := m.Field()
	if got == nil {
		t.Fatal("Field() = nil, want a field")
	}
	if got.Tension != 0.5 || got.Curvature != 2 || got.Energy != 0.7 {
		t.Errorf("Field() = %+v, want the source's tension, curvature and energy", got)
	}
	if math.Abs(got.Phase-1) > 1e-12 {
		t.Errorf("Phase = %v, want 1", got.Phase)
	}
	// A lone phase is perfectly coherent with itself.
	if got.Coherence < 1-1e-9 {
		t.Errorf("Coherence = %v, want 1", got.Coherence)
	}
}

func TestMatrix_AggregationIgnoresRegistrationOrder(t *testing.T) {
	states := map[string]field.Field{
		"a": {Tension: 0.1, Curvature: 1, Phase: 0.2, Energy: 1, Coherence: 0.5},
		"b": {Tension: 0.7, Curvature: 3, Phase: 1.9, Energy: 2, Coherence: 0.5},
		"c": {Tension: 0.4, Curvature: 2, Phase: 4.0, Energy: 3, Coherence: 0.5},
	}

	m1 := NewMatrix(DefaultConfig(), field.DefaultBounds())
	for _, id := range []string{"a", "b", "c"} {
		m1.Register(id, "news", states[id])
	}
	m2 := NewMatrix(DefaultConfig(), field.DefaultBounds())
	for _, id := range []string{"c", "a", "b"} {
		m2.Register(id, "news", states[id])
	}

	f1, f2 := m1.Field(), m2.Field()
	if *f1 != *f2 {
		t.Errorf("fields differ across registration orders: %+v vs %+v", f1, f2)
	}
}

func TestMatrix_ReRegisterReplaces(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("x", "news", field.Field{Curvature: 1, Energy: 1})
	m.Register("x", "news", field.Field{Curvature: 1, Energy: 5})

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if got := m.Field().Energy; got != 5 {
		t.Errorf("Energy = %v, want the replacing source's 5", got)
	}
}

func TestMatrix_EnergySums(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("a", "news", field.Field{Curvature: 1, Energy: 1})
	m.Register("b", "news", field.Field{Curvature: 1, Energy: 2})

	if got := m.Field().Energy; got != 3 {
		t.Errorf("Energy = %v, want 3 (sum, not mean)", got)
	}
}

func TestMatrix_OpposedPhasesCancelCoherence(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("a", "news", field.Field{Curvature: 1, Phase: 0, Energy: 1})
	m.Register("b", "news", field.Field{Curvature: 1, Phase: math.Pi, Energy: 1})

	if got := m.Field().Coherence; got > 0.01 {
		t.Errorf("Coherence = %v, want near zero for opposed phases", got)
	}
}

func TestMatrix_Domains(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("n1", "news", field.Field{Curvature: 1, Energy: 1})
	m.Register("n2", "news", field.Field{Curvature: 1, Energy: 2})
	m.Register("s1", "sensor", field.Field{Curvature: 1, Energy: 7})

	domains := m.Domains()
	if len(domains) != 2 {
		t.Fatalf("Domains() has %d entries, want 2", len(domains))
	}
	if got := domains["news"].Energy; got != 3 {
		t.Errorf("news energy = %v, want 3", got)
	}
	if got := domains["sensor"].Energy; got != 7 {
		t.Errorf("sensor energy = %v, want 7", got)
	}
}

func TestMatrix_IncoherencesCrossDomainOnly(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("a", "news", field.Field{Tension: 0, Curvature: 1, Energy: 1})
	m.Register("b", "sensor", field.Field{Tension: 2, Curvature: 1, Energy: 1})
	m.Register("c", "news", field.Field{Tension: 2, Curvature: 1, Energy: 1})

	got := m.Incoherences()

	// a-c disagree as much as a-b but share a domain.
	if len(got) != 1 {
		t.Fatalf("Incoherences() = %v, want exactly one pair", got)
	}
	if got[0].From != "a" || got[0].To != "b" {
		t.Errorf("pair = %s-%s, want a-b", got[0].From, got[0].To)
	}
	if got[0].Magnitude != 2 {
		t.Errorf("Magnitude = %v, want 2", got[0].Magnitude)
	}
}

func TestMatrix_IncoherencesSortedLargestFirst(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	m.Register("a", "news", field.Field{Tension: 0, Curvature: 1, Energy: 1})
	m.Register("b", "sensor", field.Field{Tension: 2, Curvature: 1, Energy: 1})
	m.Register("c", "market", field.Field{Tension: 1, Curvature: 1, Energy: 1})

	got := m.Incoherences()

	if len(got) != 3 {
		t.Fatalf("Incoherences() has %d pairs, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Magnitude > got[i-1].Magnitude {
			t.Errorf("pair %d (%v) out of order after %v", i, got[i].Magnitude, got[i-1].Magnitude)
		}
	}
	if got[0].From != "a" || got[0].To != "b" {
		t.Errorf("largest pair = %s-%s, want a-b", got[0].From, got[0].To)
	}
}

func TestMatrix_AgreementYieldsNoIncoherences(t *testing.T) {
	m := NewMatrix(DefaultConfig(), field.DefaultBounds())
	st := field.Field{Curvature: 1, Energy: 1, Coherence: 0.5}
	m.Register("a", "news", st)
	m.Register("b", "sensor", st)

	if got := m.Incoherences(); got != nil {
		t.Errorf("Incoherences() = %v, want nil when sources agree", got)
	}
}
