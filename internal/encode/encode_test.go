package encode

import (
	"math"
	"strings"
	"testing"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
)

func newTestEncoder() *Encoder {
	return NewEncoder(DefaultConfig(), field.DefaultBounds())
}

func TestEncoder_Text_EmptyInput(t *testing.T) {
	e := newTestEncoder()
	b := field.DefaultBounds()
	want := field.Default(b)

	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"spaces only", "     "},
		{"mixed whitespace", " \t\n\r  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Text(tt.input)
			if got != want {
				t.Errorf("Text(%q) = %+v, want default state %+v", tt.input, got, want)
			}
		})
	}
}

func TestEncoder_Text_Deterministic(t *testing.T) {
	inputs := []string{
		"hello world",
		"日本語のテキスト",
		"👨‍👩‍👧‍👦 with flags 🇩🇪🇯🇵",
		"مَرْحَبًا",
	}

	for _, s := range inputs {
		a := newTestEncoder().Text(s)
		b := newTestEncoder().Text(s)
		if a != b {
			t.Errorf("Text(%q) not deterministic across fresh encoders: %+v vs %+v", s, a, b)
		}
	}
}

func TestEncoder_Text_Bounds(t *testing.T) {
	e := newTestEncoder()
	b := field.DefaultBounds()

	inputs := []string{
		"plain ascii",
		"中文字符串",
		"👍👍🏽",
		"\x01\x02 control \x7f",
		"Ω≈ç√∫˜µ≤≥÷",
		strings.Repeat("long input ", 200),
	}

	for _, s := range inputs {
		f := e.Text(s)
		if f.Curvature < b.CurvatureMin || f.Curvature > b.CurvatureMax {
			t.Errorf("Text(%q).Curvature = %f outside [%f, %f]", s, f.Curvature, b.CurvatureMin, b.CurvatureMax)
		}
		if f.Coherence < 0 || f.Coherence > 1 {
			t.Errorf("Text(%q).Coherence = %f outside [0, 1]", s, f.Coherence)
		}
		if f.Phase < 0 || f.Phase >= 2*math.Pi {
			t.Errorf("Text(%q).Phase = %f outside [0, 2pi)", s, f.Phase)
		}
		if f.Energy < b.Epsilon {
			t.Errorf("Text(%q).Energy = %g below epsilon", s, f.Energy)
		}
	}
}

func TestEncoder_Text_SingleClusterCoheres(t *testing.T) {
	e := newTestEncoder()

	// One cluster means one phase vector, so the resultant length is 1.
	tests := []struct {
		name  string
		input string
	}{
		{"single letter", "a"},
		{"thumbs up", "👍"},
		{"skin tone modifier", "👍🏽"},
		{"family ZWJ sequence", "👨‍👩‍👧‍👦"},
		{"flag pair", "🇩🇪"},
		{"arabic with mark", "مَ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := e.Text(tt.input)
			if f.Coherence < 0.999999 {
				t.Errorf("Text(%q).Coherence = %f, want ~1 (input must encode as one cluster)", tt.input, f.Coherence)
			}
		})
	}
}

func TestEncoder_Text_MultiClusterScatters(t *testing.T) {
	e := newTestEncoder()

	f := e.Text("hello")
	if f.Coherence >= 0.99 {
		t.Errorf("Coherence = %f, want < 0.99 for scattered cluster phases", f.Coherence)
	}
}

func TestEncoder_Text_EnergyGrowsWithContent(t *testing.T) {
	e := newTestEncoder()

	if ea, eaa := e.Text("a").Energy, e.Text("aa").Energy; eaa <= ea {
		t.Errorf("Energy(aa) = %f should exceed Energy(a) = %f", eaa, ea)
	}

	// A seven-rune ZWJ family outweighs a single-rune emoji: more
	// codepoint mass and a larger cluster-length gain.
	if thumb, family := e.Text("👍").Energy, e.Text("👨‍👩‍👧‍👦").Energy; family <= thumb {
		t.Errorf("family Energy = %f should exceed thumbs-up Energy = %f", family, thumb)
	}
}

func TestEncoder_CurvatureByCategory(t *testing.T) {
	e := newTestEncoder()
	cfg := DefaultConfig()

	tests := []struct {
		name string
		r    rune
		want float64
	}{
		{"letter", 'a', cfg.LetterCurvature},
		{"combining mark", '́', cfg.MarkCurvature},
		{"digit", '7', cfg.NumberCurvature},
		{"punctuation", ',', cfg.PunctCurvature},
		{"math symbol", '+', cfg.SymbolCurvature},
		{"space separator", ' ', cfg.SeparatorCurvature},
		{"control", '\x01', cfg.ControlCurvature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.curvatureFor(tt.r)
			if got != tt.want {
				t.Errorf("curvatureFor(%q) = %f, want %f", tt.r, got, tt.want)
			}
		})
	}
}

func TestEncoder_Code_StructureRaisesCurvature(t *testing.T) {
	e := newTestEncoder()
	src := "if x > 0 { for i := range xs { use(i) } }"

	text := e.Text(src)
	code := e.Code(src)

	if code.Curvature <= text.Curvature {
		t.Errorf("Code.Curvature = %f should exceed Text.Curvature = %f", code.Curvature, text.Curvature)
	}
}

func TestEncoder_Code_ImportsRaiseTension(t *testing.T) {
	e := newTestEncoder()
	src := "import os\nimport sys\nvalue = 1"

	text := e.Text(src)
	code := e.Code(src)

	wantDelta := 2 * DefaultConfig().ImportTension
	if got := code.Tension - text.Tension; math.Abs(got-wantDelta) > 1e-12 {
		t.Errorf("import tension delta = %f, want %f", got, wantDelta)
	}
}

func TestEncoder_Code_CoherenceFloor(t *testing.T) {
	e := newTestEncoder()
	cfg := DefaultConfig()

	// 200 branch keywords push complexity to 21x, crushing coherence
	// far below the floor before it is reapplied.
	src := strings.Repeat("if ", 200)
	code := e.Code(src)

	if code.Coherence != cfg.CodeCoherenceFloor {
		t.Errorf("Coherence = %f, want floor %f", code.Coherence, cfg.CodeCoherenceFloor)
	}
}

func TestEncoder_Code_NoKeywordsMatchesText(t *testing.T) {
	e := newTestEncoder()
	src := "plain prose without structure"

	text := e.Text(src)
	code := e.Code(src)

	if code.Curvature != text.Curvature {
		t.Errorf("Curvature changed without keywords: %f vs %f", code.Curvature, text.Curvature)
	}
	if code.Tension != text.Tension {
		t.Errorf("Tension changed without imports: %f vs %f", code.Tension, text.Tension)
	}
	if code.Energy != text.Energy {
		t.Errorf("Energy changed: %f vs %f", code.Energy, text.Energy)
	}
	if code.Coherence < DefaultConfig().CodeCoherenceFloor {
		t.Errorf("Coherence = %f below the code floor", code.Coherence)
	}
}

func TestSplitClusters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"whitespace only", " \t\n ", 0},
		{"two letters", "ab", 2},
		{"letters around space", "a b", 2},
		{"family ZWJ is one cluster", "👨‍👩‍👧‍👦", 1},
		{"two flags are two clusters", "🇩🇪🇯🇵", 2},
		{"mark attaches to base", "مَ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitClusters(tt.input)
			if len(got) != tt.want {
				t.Errorf("splitClusters(%q) = %d clusters, want %d", tt.input, len(got), tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LetterCurvature != 0.3 {
		t.Errorf("LetterCurvature = %f, want 0.3", cfg.LetterCurvature)
	}
	if cfg.ClusterCurvatureGain != 0.15 {
		t.Errorf("ClusterCurvatureGain = %f, want 0.15", cfg.ClusterCurvatureGain)
	}
	if cfg.TensionReference != 0x4E00 {
		t.Errorf("TensionReference = %#x, want 0x4E00", cfg.TensionReference)
	}
	if cfg.ComplexityGain != 0.1 {
		t.Errorf("ComplexityGain = %f, want 0.1", cfg.ComplexityGain)
	}
	if len(cfg.BranchKeywords) == 0 || len(cfg.LoopKeywords) == 0 {
		t.Error("keyword sets must not be empty by default")
	}
}
