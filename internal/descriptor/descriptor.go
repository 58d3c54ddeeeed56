package descriptor

import (
	"fmt"
	"regexp"
	"slices"
)

// DefaultRoot is the root label used when a descriptor names none.
const DefaultRoot = "ROOT"

// Predicate decides something about a single input line.
type Predicate func(line string) bool

func never(string) bool { return false }

// Level is one canonical hierarchy level: its labels and its alternative
// matchers, always in list form.
type Level struct {
	Labels   []string
	Matchers []*Matcher
}

// Descriptor is the canonical, normalized rule set. It is not modified
// after construction; transforms return new values.
type Descriptor struct {
	Root    string
	Levels  []Level
	Start   Predicate
	Stop    Predicate
	Padding bool
	Exclude []*regexp.Regexp

	internalMarkers bool
	inlineData      bool
}

// InternalMarkers reports whether "[[P]]" markers are recognised.
func (d *Descriptor) InternalMarkers() bool { return d.internalMarkers }

// InlineData reports whether inline literal maps are captured.
func (d *Descriptor) InlineData() bool { return d.inlineData }

// Depth is the number of configured levels.
func (d *Descriptor) Depth() int { return len(d.Levels) }

// Label returns the first configured label of a 1-based level.
func (d *Descriptor) Label(level int) string {
	if level < 1 || level > len(d.Levels) {
		return ""
	}
	return d.Levels[level-1].Labels[0]
}

// Normalize validates spec and returns its canonical form. The spec is
// not modified.
func Normalize(spec Spec) (*Descriptor, error) {
	if len(spec.Components) == 0 {
		return nil, &InvalidDescriptorError{Field: "components", Reason: "at least one level is required"}
	}
	if len(spec.Patterns) != len(spec.Components) {
		return nil, &InvalidDescriptorError{
			Field:  "patterns",
			Reason: fmt.Sprintf("expected %d levels to match components, got %d", len(spec.Components), len(spec.Patterns)),
		}
	}

	d := &Descriptor{
		Root:    spec.Root,
		Padding: spec.Padding,
		Start:   never,
		Stop:    never,
	}
	if d.Root == "" {
		d.Root = DefaultRoot
	}

	for i, alts := range spec.Patterns {
		labels := slices.Clone([]string(spec.Components[i]))
		if len(labels) == 0 {
			return nil, &InvalidDescriptorError{Field: fmt.Sprintf("components[%d]", i), Reason: "no label"}
		}
		if len(alts) == 0 {
			return nil, &InvalidDescriptorError{Field: fmt.Sprintf("patterns[%d]", i), Reason: "no pattern"}
		}
		level := Level{Labels: labels}
		for j, p := range alts {
			re, err := compile(p, fmt.Sprintf("patterns[%d][%d]", i, j))
			if err != nil {
				return nil, err
			}
			level.Matchers = append(level.Matchers, plainMatcher(re))
		}
		d.Levels = append(d.Levels, level)
	}

	var err error
	if d.Start, err = startPredicate(spec); err != nil {
		return nil, err
	}
	if d.Stop, err = stopPredicate(spec); err != nil {
		return nil, err
	}

	for i, p := range spec.Exclude {
		re, err := compile(p, fmt.Sprintf("exclude[%d]", i))
		if err != nil {
			return nil, err
		}
		d.Exclude = append(d.Exclude, re)
	}

	if spec.InternalMarkers {
		if d, err = d.WithInternalMarkers(); err != nil {
			return nil, err
		}
	}
	if spec.InlineData {
		if d, err = d.WithInlineData(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func compile(p Pattern, field string) (*regexp.Regexp, error) {
	if p.Regexp != nil {
		return p.Regexp, nil
	}
	if p.Expr == "" {
		return nil, &InvalidDescriptorError{Field: field, Reason: "empty pattern"}
	}
	re, err := regexp.Compile(p.Expr)
	if err != nil {
		return nil, &InvalidDescriptorError{Field: field, Reason: err.Error(), Err: err}
	}
	return re, nil
}

// startPredicate is true for the lines to skip. With a pattern, that is
// every line before the first match.
func startPredicate(spec Spec) (Predicate, error) {
	switch {
	case spec.StartFunc != nil && spec.StartParsing != "":
		return nil, &InvalidDescriptorError{Field: "startParsing", Reason: "set either a pattern or a predicate"}
	case spec.StartFunc != nil:
		return spec.StartFunc, nil
	case spec.StartParsing != "":
		re, err := compile(Expr(spec.StartParsing), "startParsing")
		if err != nil {
			return nil, err
		}
		return func(line string) bool { return !re.MatchString(line) }, nil
	}
	return never, nil
}

func stopPredicate(spec Spec) (Predicate, error) {
	switch {
	case spec.StopFunc != nil && spec.StopParsing != "":
		return nil, &InvalidDescriptorError{Field: "stopParsing", Reason: "set either a pattern or a predicate"}
	case spec.StopFunc != nil:
		return spec.StopFunc, nil
	case spec.StopParsing != "":
		re, err := compile(Expr(spec.StopParsing), "stopParsing")
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}
	return never, nil
}

// clone copies the descriptor deeply enough that a transform can replace
// matchers and exclusions without touching the receiver.
func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.Levels = make([]Level, len(d.Levels))
	for i, l := range d.Levels {
		c.Levels[i] = Level{
			Labels:   slices.Clone(l.Labels),
			Matchers: slices.Clone(l.Matchers),
		}
	}
	c.Exclude = slices.Clone(d.Exclude)
	return &c
}

// WithInternalMarkers returns a copy in which every level pattern P also
// matches its bracket-wrapped artifact form "[[P]]", and in which those
// markers are added to the exclusion list.
func (d *Descriptor) WithInternalMarkers() (*Descriptor, error) {
	if d.internalMarkers {
		return d, nil
	}
	c := d.clone()
	c.internalMarkers = true
	for i, l := range c.Levels {
		for j, m := range l.Matchers {
			nm, err := composeMatcher(m.base, true, c.inlineData)
			if err != nil {
				return nil, &InvalidDescriptorError{Field: fmt.Sprintf("patterns[%d][%d]", i, j), Reason: err.Error(), Err: err}
			}
			c.Levels[i].Matchers[j] = nm
			ex, err := regexp.Compile(`\[\[(?:` + m.base.String() + `)\]\]\s*`)
			if err != nil {
				return nil, &InvalidDescriptorError{Field: fmt.Sprintf("patterns[%d][%d]", i, j), Reason: err.Error(), Err: err}
			}
			c.Exclude = append(c.Exclude, ex)
		}
	}
	return c, nil
}

// WithInlineData returns a copy in which every level pattern also captures
// a "{...}" literal map following the label.
func (d *Descriptor) WithInlineData() (*Descriptor, error) {
	if d.inlineData {
		return d, nil
	}
	c := d.clone()
	c.inlineData = true
	for i, l := range c.Levels {
		for j, m := range l.Matchers {
			nm, err := composeMatcher(m.base, c.internalMarkers, true)
			if err != nil {
				return nil, &InvalidDescriptorError{Field: fmt.Sprintf("patterns[%d][%d]", i, j), Reason: err.Error(), Err: err}
			}
			c.Levels[i].Matchers[j] = nm
		}
	}
	return c, nil
}
