package descriptor

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Matcher is one compiled level pattern together with the capture groups
// that carry the label, the artifact marker and the inline data.
type Matcher struct {
	Re *regexp.Regexp

	base        *regexp.Regexp
	labelGroups []int // first participating group holds the label
	markerGroup int   // -1 when markers are off
	dataGroup   int   // -1 when inline data is off
}

// Pattern is the level pattern as written, before any marker or
// inline-data rewriting.
func (m *Matcher) Pattern() string { return m.base.String() }

func plainMatcher(re *regexp.Regexp) *Matcher {
	return &Matcher{Re: re, base: re, labelGroups: []int{0}, markerGroup: -1, dataGroup: -1}
}

// composeMatcher rewrites base for the marker and inline-data modes. Group
// positions are computed rather than named so that user patterns may
// carry their own named groups.
func composeMatcher(base *regexp.Regexp, markers, data bool) (*Matcher, error) {
	if !markers && !data {
		return plainMatcher(base), nil
	}
	core := "(?:" + base.String() + ")"
	n := base.NumSubexp()

	m := &Matcher{base: base, markerGroup: -1, dataGroup: -1}
	var expr string
	if markers {
		// (1 marker: [[ (2 label: core) ]]) | (3+n bare: core)
		expr = `(\[\[(` + core + `)\]\])|(` + core + `)`
		m.markerGroup = 1
		m.labelGroups = []int{2, 3 + n}
	} else {
		expr = "(" + core + ")"
		m.labelGroups = []int{1}
	}
	if data {
		expr = "(?:" + expr + `)\s*(\{[^{}]*\})?`
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	m.Re = re
	if data {
		m.dataGroup = re.NumSubexp()
	}
	return m, nil
}

// Match is a line hit against the descriptor.
type Match struct {
	Level  int    // 1-based hierarchy level
	Label  string // Matched label text, trimmed
	Marker string // Full "[[P]]" marker when the artifact form matched
	Data   string // Raw inline literal text, if any
}

// ParseData decodes the inline literal map of the match. A match without
// inline data yields a nil map.
func (m Match) ParseData() (map[string]any, error) {
	if m.Data == "" {
		return nil, nil
	}
	var out map[string]any
	if err := yaml.Unmarshal([]byte(m.Data), &out); err != nil {
		return nil, &MalformedInlineDataError{Text: m.Data, Err: err}
	}
	if out == nil {
		return nil, &MalformedInlineDataError{Text: m.Data}
	}
	return out, nil
}

// Strip removes the artifact marker and the inline data from line, the
// way they are dropped before the line is stored as content.
func (m Match) Strip(line string) string {
	if m.Marker != "" {
		line = strings.TrimLeft(strings.Replace(line, m.Marker, "", 1), " \t")
	}
	if m.Data != "" {
		line = strings.TrimLeft(strings.Replace(line, m.Data, "", 1), " \t")
	}
	return line
}

func (m *Matcher) find(line string) (Match, bool) {
	loc := m.Re.FindStringSubmatchIndex(line)
	if loc == nil {
		return Match{}, false
	}
	group := func(g int) string {
		if g < 0 || 2*g+1 >= len(loc) || loc[2*g] < 0 {
			return ""
		}
		return line[loc[2*g]:loc[2*g+1]]
	}

	var out Match
	for _, g := range m.labelGroups {
		if loc[2*g] >= 0 {
			out.Label = strings.TrimSpace(group(g))
			break
		}
	}
	out.Marker = group(m.markerGroup)
	out.Data = group(m.dataGroup)
	return out, true
}

// Match scans levels in ascending order and, within a level, its patterns
// in order. The first level with any hit wins; later levels are never
// checked.
func (d *Descriptor) Match(line string) (Match, bool) {
	for i, level := range d.Levels {
		for _, m := range level.Matchers {
			if hit, ok := m.find(line); ok {
				hit.Level = i + 1
				return hit, true
			}
		}
	}
	return Match{}, false
}
