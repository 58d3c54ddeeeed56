// Package graph holds the directed-graph backbone that the hierarchy
// builder writes into and the document façade reads from.
package graph

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strconv"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrDuplicateNode = errors.New("duplicate node")
)

// Key identifies a node: a display label plus a unique numeric suffix,
// e.g. "1.2. [5]".
type Key string

// NewKey formats a node key from its label and sequence number.
func NewKey(label string, n int) Key {
	return Key(fmt.Sprintf("%s [%d]", label, n))
}

var keySuffixRe = regexp.MustCompile(`\[(\d+)\]$`)

// KeyNumber extracts the numeric suffix of a key.
func KeyNumber(k Key) (int, bool) {
	m := keySuffixRe.FindStringSubmatch(string(k))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Label returns the display part of a key, without the numeric suffix.
func Label(k Key) string {
	loc := keySuffixRe.FindStringIndex(string(k))
	if loc == nil {
		return string(k)
	}
	s := string(k)[:loc[0]]
	if len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

// Attrs is the data held by a node.
type Attrs struct {
	Meta    string         `json:"meta" yaml:"meta"`                           // Matched label text, trimmed
	Level   int            `json:"level" yaml:"level"`                         // 0 for root only
	Pad     bool           `json:"pad" yaml:"pad"`                             // Synthesized to fill a level gap
	Text    []string       `json:"text" yaml:"text"`                           // Raw lines, document order
	Content []string       `json:"content,omitempty" yaml:"content,omitempty"` // Text after the exclusion pass
	ID      string         `json:"id" yaml:"id"`                               // Hierarchical path
	Data    map[string]any `json:"data,omitempty" yaml:"data,omitempty"`       // Inline literal data
}

// Clone returns a deep copy of the attributes.
func (a *Attrs) Clone() *Attrs {
	if a == nil {
		return nil
	}
	c := *a
	c.Text = slices.Clone(a.Text)
	c.Content = slices.Clone(a.Content)
	if a.Data != nil {
		c.Data = maps.Clone(a.Data)
	}
	return &c
}

// Backbone is the minimal directed-graph capability the hierarchy
// builder and the search utilities depend on.
type Backbone interface {
	// Initialize resets the graph and inserts the root node.
	Initialize(rootLabel string) Key
	Root() Key
	AddNode(key Key, attrs *Attrs) error
	AddEdge(parent, child Key) error
	// NextID returns the next value of the shared, monotonic node counter.
	NextID() int
	Get(key Key) (*Attrs, bool)
	Predecessors(key Key) []Key
	Successors(key Key) []Key
	DFSEdges(source Key) iter.Seq2[Key, Key]
	BFSEdges(source Key) iter.Seq2[Key, Key]
	Len() int
	// Keys lists nodes in insertion order.
	Keys() []Key
	Clone() Backbone
}
