// Package doctree is the read side of a built hierarchy: ordered traversal,
// lookups, reports and the serialized form.
package doctree

import (
	"cmp"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/docgraph/internal/graph"
	"github.com/dgallion1/docgraph/internal/search"
)

// Document wraps a finished tree. It must not be mutated while it is being
// read concurrently.
type Document struct {
	g           graph.Backbone
	root        graph.Key
	maxDepth    int
	activeDepth int
}

// New wraps g, whose root is the document root.
func New(g graph.Backbone) *Document {
	d := &Document{g: g, root: g.Root()}
	d.setDepths()
	return d
}

func (d *Document) setDepths() {
	d.maxDepth = 0
	for _, a := range d.Traverse() {
		d.maxDepth = max(d.maxDepth, a.Level)
	}
	d.activeDepth = 0
	for _, child := range d.g.DFSEdges(d.root) {
		if a, ok := d.g.Get(child); ok && !a.Pad {
			d.activeDepth = a.Level
			break
		}
	}
}

// Graph exposes the underlying backbone.
func (d *Document) Graph() graph.Backbone { return d.g }

func (d *Document) Root() graph.Key { return d.root }

func (d *Document) RootNode() *graph.Attrs {
	a, _ := d.g.Get(d.root)
	return a
}

// ID is the root's hierarchical id, e.g. "/root".
func (d *Document) ID() string { return d.RootNode().ID }

// Name is the root's meta.
func (d *Document) Name() string { return d.RootNode().Meta }

func (d *Document) Len() int { return d.g.Len() }

// MaxDepth is the deepest level present.
func (d *Document) MaxDepth() int { return d.maxDepth }

// ActiveDepth is the level of the first non-padding node met depth-first,
// or 0 for a document with no nodes below the root.
func (d *Document) ActiveDepth() int { return d.activeDepth }

func (d *Document) Node(key graph.Key) (*graph.Attrs, bool) {
	return d.g.Get(key)
}

func (d *Document) Successors(key graph.Key) []graph.Key   { return d.g.Successors(key) }
func (d *Document) Predecessors(key graph.Key) []graph.Key { return d.g.Predecessors(key) }

// Traverse yields nodes in insertion order, i.e. by key number.
func (d *Document) Traverse() iter.Seq2[graph.Key, *graph.Attrs] {
	return func(yield func(graph.Key, *graph.Attrs) bool) {
		for _, k := range d.orderedKeys() {
			a, _ := d.g.Get(k)
			if !yield(k, a) {
				return
			}
		}
	}
}

func (d *Document) orderedKeys() []graph.Key {
	keys := d.g.Keys()
	slices.SortStableFunc(keys, func(a, b graph.Key) int {
		na, _ := graph.KeyNumber(a)
		nb, _ := graph.KeyNumber(b)
		return cmp.Compare(na, nb)
	})
	return keys
}

// Filter yields the keys under source (root when empty) satisfying pred.
func (d *Document) Filter(pred search.Predicate, source graph.Key, order search.Order) iter.Seq[graph.Key] {
	return search.FilterForward(d.g, pred, source, order)
}

// Ancestors yields the strict ancestors of key satisfying pred, nearest
// first, root excluded.
func (d *Document) Ancestors(key graph.Key, pred search.Predicate) iter.Seq[graph.Key] {
	return search.FilterAncestors(d.g, key, pred)
}

// IDEndingWith returns the first node whose id ends with suffix.
func (d *Document) IDEndingWith(suffix string) (graph.Key, *graph.Attrs, bool) {
	for k, a := range d.Traverse() {
		if strings.HasSuffix(a.ID, suffix) {
			return k, a, true
		}
	}
	return "", nil, false
}

// Search returns the first node whose meta contains substr.
func (d *Document) Search(substr string) (graph.Key, *graph.Attrs, bool) {
	for k, a := range d.Traverse() {
		if strings.Contains(a.Meta, substr) {
			return k, a, true
		}
	}
	return "", nil, false
}

// SearchByPattern returns every node for which re matches field(attrs).
// A nil field matches against meta.
func (d *Document) SearchByPattern(re *regexp.Regexp, field func(*graph.Attrs) string) []graph.Key {
	if field == nil {
		field = func(a *graph.Attrs) string { return a.Meta }
	}
	var out []graph.Key
	for k, a := range d.Traverse() {
		if re.MatchString(field(a)) {
			out = append(out, k)
		}
	}
	return out
}

// Nodes yields the nodes at the given level.
func (d *Document) Nodes(level int) iter.Seq2[graph.Key, *graph.Attrs] {
	return func(yield func(graph.Key, *graph.Attrs) bool) {
		for k, a := range d.Traverse() {
			if a.Level == level && !yield(k, a) {
				return
			}
		}
	}
}

// LeafNodes yields nodes that have a parent and no children.
func (d *Document) LeafNodes() iter.Seq2[graph.Key, *graph.Attrs] {
	return func(yield func(graph.Key, *graph.Attrs) bool) {
		for k, a := range d.Traverse() {
			if len(d.g.Predecessors(k)) == 0 || len(d.g.Successors(k)) != 0 {
				continue
			}
			if !yield(k, a) {
				return
			}
		}
	}
}

// Paragraphs yields the nodes at MaxDepth.
func (d *Document) Paragraphs() iter.Seq2[graph.Key, *graph.Attrs] {
	return d.Nodes(d.maxDepth)
}

// Text reassembles the document lines in order. With justText the raw
// lines are used; otherwise a node's cleaned content is preferred where
// the exclusion pass has produced one.
func (d *Document) Text(justText bool) []string {
	var lines []string
	for _, a := range d.Traverse() {
		if !justText && a.Content != nil {
			lines = append(lines, a.Content...)
			continue
		}
		lines = append(lines, a.Text...)
	}
	return lines
}

// FlatReport counts non-padding nodes per level. The deepest level is
// left out unless considerLeafs is set, as it is usually too large to
// check by hand.
func (d *Document) FlatReport(considerLeafs bool) map[int]int {
	report := map[int]int{}
	for _, a := range d.Traverse() {
		if a.Pad || (a.Level == d.maxDepth && !considerLeafs) {
			continue
		}
		report[a.Level]++
	}
	return report
}

// String renders an indented outline of the non-padding nodes.
func (d *Document) String() string {
	var b strings.Builder
	for _, a := range d.Traverse() {
		if a.Pad {
			continue
		}
		b.WriteString(strings.Repeat("\t", max(0, a.Level-d.activeDepth)))
		b.WriteString(a.Meta)
		b.WriteByte('\n')
	}
	return b.String()
}

// Copy returns a deep, independent copy.
func (d *Document) Copy() *Document {
	return New(d.g.Clone())
}

// MapValues applies f to every node of a copy, in insertion order, and
// returns the copy. d is not modified.
func (d *Document) MapValues(f func(*graph.Attrs)) *Document {
	c := d.Copy()
	for _, a := range c.Traverse() {
		f(a)
	}
	c.setDepths()
	return c
}

// SortedLevels lists the levels of a report, shallowest first.
func SortedLevels(counts map[int]int) []int {
	return slices.Sorted(maps.Keys(counts))
}
