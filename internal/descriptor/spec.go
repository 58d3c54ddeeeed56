// Package descriptor turns a user-supplied rule set into the canonical
// form the hierarchy builder consumes, and matches lines against it.
package descriptor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Spec is the user-facing descriptor. Each entry of Components and Patterns
// describes one hierarchy level, level 1 first. A level may carry several
// alternative labels and patterns.
type Spec struct {
	Root       string         `yaml:"root,omitempty" json:"root,omitempty"`
	Components []Labels       `yaml:"components" json:"components"`
	Patterns   []Alternatives `yaml:"patterns" json:"patterns"`

	// StartParsing skips lines until the first line matching it.
	StartParsing string `yaml:"startParsing,omitempty" json:"startParsing,omitempty"`
	// StopParsing ends processing before the first line matching it.
	StopParsing string `yaml:"stopParsing,omitempty" json:"stopParsing,omitempty"`

	// StartFunc and StopFunc are programmatic alternatives to the
	// StartParsing/StopParsing patterns.
	StartFunc func(line string) bool `yaml:"-" json:"-"`
	StopFunc  func(line string) bool `yaml:"-" json:"-"`

	Padding bool      `yaml:"padding,omitempty" json:"padding,omitempty"`
	Exclude []Pattern `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// InternalMarkers also accepts "[[P]]" artifact markers for every level
	// pattern P and strips them from stored content.
	InternalMarkers bool `yaml:"internalMarkers,omitempty" json:"internalMarkers,omitempty"`
	// InlineData captures a "{...}" literal map following the label.
	InlineData bool `yaml:"inlineData,omitempty" json:"inlineData,omitempty"`
}

// Labels holds the label(s) of one level. In YAML it may be a scalar or a
// sequence.
type Labels []string

func (l *Labels) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = Labels{value.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: component must be a string or a list of strings", value.Line)
}

// Pattern is a raw expression or a pre-compiled matcher.
type Pattern struct {
	Expr   string
	Regexp *regexp.Regexp
}

// Expr wraps a raw expression.
func Expr(expr string) Pattern {
	return Pattern{Expr: expr}
}

// Compiled wraps a pre-compiled expression, which normalization keeps as is.
func Compiled(re *regexp.Regexp) Pattern {
	return Pattern{Regexp: re}
}

func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: pattern must be a string", value.Line)
	}
	p.Expr = value.Value
	return nil
}

func (p Pattern) MarshalYAML() (any, error) {
	return p.source(), nil
}

func (p Pattern) source() string {
	if p.Regexp != nil {
		return p.Regexp.String()
	}
	return p.Expr
}

// Alternatives holds the pattern(s) of one level. In YAML it may be a
// scalar or a sequence.
type Alternatives []Pattern

func (a *Alternatives) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*a = Alternatives{{Expr: value.Value}}
		return nil
	case yaml.SequenceNode:
		var out []Pattern
		if err := value.Decode(&out); err != nil {
			return err
		}
		*a = out
		return nil
	}
	return fmt.Errorf("line %d: pattern entry must be a string or a list of strings", value.Line)
}

// Components builds one single-label level per argument.
func Components(labels ...string) []Labels {
	out := make([]Labels, len(labels))
	for i, l := range labels {
		out[i] = Labels{l}
	}
	return out
}

// Exprs builds one single-pattern level per argument.
func Exprs(exprs ...string) []Alternatives {
	out := make([]Alternatives, len(exprs))
	for i, e := range exprs {
		out[i] = Alternatives{Expr(e)}
	}
	return out
}

// Decode reads a YAML (or JSON) descriptor.
func Decode(r io.Reader) (Spec, error) {
	var s Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return s, &InvalidDescriptorError{Field: "descriptor", Reason: "empty document"}
		}
		return s, fmt.Errorf("decode descriptor: %w", err)
	}
	return s, nil
}

// LoadFile reads a descriptor from a YAML or JSON file.
func LoadFile(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, fmt.Errorf("open descriptor: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
