package descriptor

import (
	"errors"
	"testing"
)

func mustNormalize(t *testing.T, spec Spec) *Descriptor {
	t.Helper()
	d, err := Normalize(spec)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return d
}

func TestMatch_Levels(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components: Components("A", "B", "C"),
		Patterns:   Exprs(`A`, `B`, `C`),
	})
	tests := []struct {
		line  string
		level int
		ok    bool
	}{
		{"A", 1, true},
		{"B", 2, true},
		{"C", 3, true},
		{"X", 0, false},
	}
	for _, tt := range tests {
		m, ok := d.Match(tt.line)
		if ok != tt.ok || m.Level != tt.level {
			t.Errorf("Match(%q): expected level %d ok=%v, got %d ok=%v", tt.line, tt.level, tt.ok, m.Level, ok)
		}
	}
}

func TestMatch_FirstLevelWins(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components: Components("Section", "Subsection"),
		Patterns:   Exprs(`^\d`, `^\d+\.\d+`),
	})
	m, ok := d.Match("1.1 overlapping")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Level != 1 {
		t.Errorf("expected the earlier level to win, got level %d", m.Level)
	}
	if m.Label != "1" {
		t.Errorf("expected label %q, got %q", "1", m.Label)
	}
}

func TestMatch_AlternativesShareLevel(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components: []Labels{{"Chapter", "Schedule"}, {"Article"}},
		Patterns: []Alternatives{
			{Expr(`^CHAPTER \d+`), Expr(`^SCHEDULE \d+`)},
			{Expr(`^ARTICLE \d+`)},
		},
	})
	m, ok := d.Match("SCHEDULE 2 Fees")
	if !ok || m.Level != 1 {
		t.Fatalf("expected level 1, got %d ok=%v", m.Level, ok)
	}
	if m.Label != "SCHEDULE 2" {
		t.Errorf("expected label %q, got %q", "SCHEDULE 2", m.Label)
	}
}

func TestMatch_LabelIsTrimmed(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components: Components("Section"),
		Patterns:   Exprs(`^\d+\.\s`),
	})
	m, _ := d.Match("1. General Restrictions")
	if m.Label != "1." {
		t.Errorf("expected %q, got %q", "1.", m.Label)
	}
}

func TestMatch_InternalMarkers(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components:      Components("Chapter", "Article"),
		Patterns:        Exprs(`Chapter`, `Article`),
		InternalMarkers: true,
	})

	m, ok := d.Match("[[Article]] Article I")
	if !ok || m.Level != 2 {
		t.Fatalf("expected level 2, got %d ok=%v", m.Level, ok)
	}
	if m.Label != "Article" {
		t.Errorf("expected label %q, got %q", "Article", m.Label)
	}
	if m.Marker != "[[Article]]" {
		t.Errorf("expected marker %q, got %q", "[[Article]]", m.Marker)
	}
	if got := m.Strip("[[Article]] Article I"); got != "Article I" {
		t.Errorf("expected stripped line %q, got %q", "Article I", got)
	}

	m, ok = d.Match("Chapter II")
	if !ok || m.Level != 1 || m.Marker != "" || m.Label != "Chapter" {
		t.Errorf("expected bare level-1 hit without marker, got %+v ok=%v", m, ok)
	}
}

func TestMatch_InlineData(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components: Components("Section"),
		Patterns:   Exprs(`^\d+\.`),
		InlineData: true,
	})

	m, ok := d.Match("1. {id: general, weight: 3} General Restrictions")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Label != "1." {
		t.Errorf("expected label %q, got %q", "1.", m.Label)
	}
	if m.Data != "{id: general, weight: 3}" {
		t.Errorf("expected data text, got %q", m.Data)
	}
	data, err := m.ParseData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data["id"] != "general" || data["weight"] != 3 {
		t.Errorf("unexpected data %v", data)
	}

	m, _ = d.Match("2. Plain")
	if m.Data != "" {
		t.Errorf("expected no data, got %q", m.Data)
	}
	if data, err := m.ParseData(); err != nil || data != nil {
		t.Errorf("expected nil data and no error, got %v, %v", data, err)
	}
}

func TestMatch_InlineDataWithMarkers(t *testing.T) {
	d := mustNormalize(t, Spec{
		Components:      Components("Chapter"),
		Patterns:        Exprs(`Chapter`),
		InternalMarkers: true,
		InlineData:      true,
	})
	line := `[[Chapter]] {"id": "ch-1"} Chapter I`
	m, ok := d.Match(line)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Marker != "[[Chapter]]" || m.Data != `{"id": "ch-1"}` || m.Label != "Chapter" {
		t.Errorf("unexpected match %+v", m)
	}
	if got := m.Strip(line); got != "Chapter I" {
		t.Errorf("expected %q, got %q", "Chapter I", got)
	}
}

func TestMatch_MalformedInlineData(t *testing.T) {
	m := Match{Data: "{id: [unterminated}"}
	_, err := m.ParseData()
	var bad *MalformedInlineDataError
	if !errors.As(err, &bad) {
		t.Fatalf("expected MalformedInlineDataError, got %v", err)
	}
	if bad.Text != m.Data {
		t.Errorf("expected offending text %q, got %q", m.Data, bad.Text)
	}
}
