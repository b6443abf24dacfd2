package trace

import (
	"testing"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

func TestNewLog_Session(t *testing.T) {
	l := NewLog(DefaultConfig())

	if len(l.Session()) != sessionIDLength {
		t.Errorf("Session() = %q, want %d characters", l.Session(), sessionIDLength)
	}
	for _, r := range l.Session() {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Errorf("Session() = %q, want lowercase hex", l.Session())
			break
		}
	}
}

func TestNewLog_SessionsDiffer(t *testing.T) {
	if NewLog(DefaultConfig()).Session() == NewLog(DefaultConfig()).Session() {
		t.Error("two logs share a session id")
	}
}

func TestLog_AppendPreservesOrder(t *testing.T) {
	l := NewLog(DefaultConfig())
	for i := 0; i < 5; i++ {
		l.Append(Record{Step: i, Loss: float64(i)})
	}

	got := l.Records()
	if len(got) != 5 {
		t.Fatalf("Len = %d, want 5", len(got))
	}
	for i, r := range got {
		if r.Step != i {
			t.Errorf("Records()[%d].Step = %d, want %d", i, r.Step, i)
		}
	}
}

func TestLog_CapacityDropsOldest(t *testing.T) {
	l := NewLog(Config{Capacity: 3})
	for i := 0; i < 10; i++ {
		l.Append(Record{Step: i})
	}

	got := l.Records()
	if len(got) != 3 {
		t.Fatalf("Len = %d, want 3", len(got))
	}
	if got[0].Step != 7 || got[2].Step != 9 {
		t.Errorf("retained steps %d..%d, want 7..9", got[0].Step, got[2].Step)
	}
}

func TestLog_RecordsIsACopy(t *testing.T) {
	l := NewLog(DefaultConfig())
	l.Append(Record{Step: 1, State: field.Field{Curvature: 1, Energy: 1}})

	got := l.Records()
	got[0].Step = 99

	if again, _ := l.Last(); again.Step != 1 {
		t.Errorf("mutating the returned slice changed the log: Step = %d", again.Step)
	}
}

func TestLog_Last(t *testing.T) {
	l := NewLog(DefaultConfig())
	if _, ok := l.Last(); ok {
		t.Error("Last() ok on an empty log, want false")
	}

	l.Append(Record{Step: 1})
	l.Append(Record{Step: 2})

	last, ok := l.Last()
	if !ok || last.Step != 2 {
		t.Errorf("Last() = %+v (ok %v), want step 2", last, ok)
	}
}
