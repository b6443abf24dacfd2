package temporal

import (
	"math"
	"testing"
)

// recordSquareWave feeds n samples of a clean four-step phase cycle.
func recordSquareWave(t *Tracker, n int) {
	for i := 0; i < n; i++ {
		t.Record(2 * math.Pi * float64(i%4) / 4)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Window != 100 {
		t.Errorf("Window = %d, want 100", cfg.Window)
	}
	if cfg.MinPeriod != 3 || cfg.MaxPeriod != 20 {
		t.Errorf("period range = [%d, %d], want [3, 20]", cfg.MinPeriod, cfg.MaxPeriod)
	}
	if cfg.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", cfg.Confidence)
	}
}

func TestTracker_WindowBounded(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)
	for i := 0; i < 250; i++ {
		tr.Record(float64(i))
	}
	if tr.Len() != cfg.Window {
		t.Errorf("Len() = %d, want %d", tr.Len(), cfg.Window)
	}
}

func TestTracker_DetectsCleanCycle(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	recordSquareWave(tr, 40)

	cycles := tr.Cycles()
	if len(cycles) == 0 {
		t.Fatal("Cycles() = none, want the period-4 cycle")
	}

	byPeriod := make(map[int]float64)
	for _, c := range cycles {
		byPeriod[c.Period] = c.Confidence
	}
	if conf, ok := byPeriod[4]; !ok || conf < 0.99 {
		t.Errorf("period 4 confidence = %v (found %v), want near 1", conf, ok)
	}
	// Off-period lags disagree by quarter turns and stay well under
	// the threshold.
	if _, ok := byPeriod[3]; ok {
		t.Error("period 3 detected, want rejection")
	}
	if _, ok := byPeriod[5]; ok {
		t.Error("period 5 detected, want rejection")
	}
}

func TestTracker_ShortHistoryHasNoCycles(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	recordSquareWave(tr, 5)

	if got := tr.Cycles(); got != nil {
		t.Errorf("Cycles() = %v, want nil before two repetitions", got)
	}
}

func TestTracker_PredictReplaysCycle(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	recordSquareWave(tr, 40)

	got := tr.Predict(6)

	want := []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2, 0, math.Pi / 2}
	if len(got) != len(want) {
		t.Fatalf("Predict(6) returned %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Predict()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTracker_PredictContinuesDrift(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.Record(0.1)
	tr.Record(0.2)
	tr.Record(0.3)

	got := tr.Predict(2)

	if math.Abs(got[0]-0.4) > 1e-9 {
		t.Errorf("Predict()[0] = %v, want 0.4", got[0])
	}
	if math.Abs(got[1]-0.5) > 1e-9 {
		t.Errorf("Predict()[1] = %v, want 0.5", got[1])
	}
}

func TestTracker_PredictDriftsAcrossSeam(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.Record(6.0)
	tr.Record(6.2)
	tr.Record(0.1)

	got := tr.Predict(1)

	// Mean drift is about 0.19 forward; the forecast lands past the
	// seam, not at a negative angle.
	if got[0] < 0.25 || got[0] > 0.35 {
		t.Errorf("Predict()[0] = %v, want roughly 0.29", got[0])
	}
}

func TestTracker_PredictHoldsSingleSample(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.Record(1.5)

	got := tr.Predict(3)

	for i, v := range got {
		if v != 1.5 {
			t.Errorf("Predict()[%d] = %v, want 1.5", i, v)
		}
	}
}

func TestTracker_PredictEmpty(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	if got := tr.Predict(3); got != nil {
		t.Errorf("Predict() = %v, want nil without history", got)
	}
	tr.Record(1)
	if got := tr.Predict(0); got != nil {
		t.Errorf("Predict(0) = %v, want nil", got)
	}
}
