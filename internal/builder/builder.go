// Package builder folds an ordered line sequence into a rooted tree, placing
// each matched line according to its level relative to the cursor.
package builder

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/graph"
	"github.com/dgallion1/docgraph/internal/search"
)

// AncestorNotFoundError is returned when the cursor has no path to the root,
// so neither a parent nor an ascent target exists. A well-formed graph never
// produces it.
type AncestorNotFoundError struct {
	Cursor graph.Key
	Level  int
}

func (e *AncestorNotFoundError) Error() string {
	return fmt.Sprintf("no ancestor of %q at level %d or shallower", e.Cursor, e.Level)
}

// Builder constructs trees. A zero Builder is usable; it writes into a new
// Arena and discards logs.
type Builder struct {
	Logger      *slog.Logger
	NewBackbone func() graph.Backbone
}

// New returns a Builder that logs to log. A nil logger discards.
func New(log *slog.Logger) *Builder {
	return &Builder{Logger: log}
}

func (b *Builder) logger() *slog.Logger {
	if b == nil || b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func (b *Builder) backbone() graph.Backbone {
	if b == nil || b.NewBackbone == nil {
		return graph.NewArena()
	}
	return b.NewBackbone()
}

// Build consumes lines in order and returns the finished raw tree. Lines
// are dropped while the start predicate holds; the first line satisfying
// the stop predicate ends the build without being consumed.
func (b *Builder) Build(lines iter.Seq[string], d *descriptor.Descriptor) (graph.Backbone, error) {
	g := b.backbone()
	cursor := g.Initialize(d.Root)

	started := false
	for line := range lines {
		if !started {
			if d.Start(line) {
				continue
			}
			started = true
		}
		if d.Stop(line) {
			break
		}

		if m, ok := d.Match(line); ok {
			next, err := place(g, d, cursor, m)
			if err != nil {
				return nil, err
			}
			cursor = next
			line = m.Strip(line)
		}

		attrs, _ := g.Get(cursor)
		attrs.Text = append(attrs.Text, line)
	}

	b.logger().Debug("raw graph constructed", "nodes", g.Len())
	return g, nil
}

// place inserts the node for m and returns its key.
func place(g graph.Backbone, d *descriptor.Descriptor, cursor graph.Key, m descriptor.Match) (graph.Key, error) {
	current, _ := g.Get(cursor)
	insertLevel := m.Level

	var parent graph.Key
	switch {
	case insertLevel == current.Level+1:
		parent = cursor
	case insertLevel > current.Level+1:
		parent = cursor
		if d.Padding {
			var err error
			if parent, err = Pad(g, d, cursor, current.Level+1, insertLevel); err != nil {
				return "", err
			}
		}
	case insertLevel == current.Level:
		preds := g.Predecessors(cursor)
		if len(preds) == 0 {
			return "", &AncestorNotFoundError{Cursor: cursor, Level: insertLevel - 1}
		}
		parent = preds[0]
	default:
		var err error
		if parent, err = ascend(g, cursor, insertLevel-1); err != nil {
			return "", err
		}
	}

	data, err := m.ParseData()
	if err != nil {
		return "", err
	}
	var id string
	if v, ok := data["id"]; ok {
		if v != nil {
			id = strings.TrimSpace(fmt.Sprint(v))
		}
		delete(data, "id")
	}
	if len(data) == 0 {
		data = nil
	}

	return addNode(g, parent, &graph.Attrs{
		Meta:  m.Label,
		Level: insertLevel,
		Text:  []string{},
		ID:    id,
		Data:  data,
	})
}

// ascend finds the nearest strict ancestor of cursor whose level is at most
// level, falling back to the root. It fails only when cursor is detached
// from the tree.
func ascend(g graph.Backbone, cursor graph.Key, level int) (graph.Key, error) {
	atOrAbove := func(a *graph.Attrs) bool { return a.Level <= level }
	if k, ok := search.First(search.FilterAncestors(g, cursor, atOrAbove)); ok {
		return k, nil
	}
	if cursor != g.Root() && len(g.Predecessors(cursor)) == 0 {
		return "", &AncestorNotFoundError{Cursor: cursor, Level: level}
	}
	return g.Root(), nil
}

// Pad inserts one synthetic node for every level from level up to
// target-1, each a child of the previous and the first a child of cursor,
// and returns the last one. When level equals target nothing is added and
// cursor is returned.
func Pad(g graph.Backbone, d *descriptor.Descriptor, cursor graph.Key, level, target int) (graph.Key, error) {
	last := cursor
	for ; level < target; level++ {
		k, err := addNode(g, last, &graph.Attrs{
			Meta:  d.Label(level),
			Level: level,
			Pad:   true,
			Text:  []string{},
		})
		if err != nil {
			return "", err
		}
		last = k
	}
	return last, nil
}

// addNode keys the node from the shared counter, derives its id from the
// parent's unless one is already set, and links it under parent.
func addNode(g graph.Backbone, parent graph.Key, attrs *graph.Attrs) (graph.Key, error) {
	p, ok := g.Get(parent)
	if !ok {
		return "", fmt.Errorf("add child of %q: %w", parent, graph.ErrUnknownNode)
	}
	n := g.NextID()
	key := graph.NewKey(attrs.Meta, n)
	if attrs.ID == "" {
		attrs.ID = fmt.Sprintf("%s/%s-%d", p.ID, Slug(attrs.Meta), n)
	}
	if err := g.AddNode(key, attrs); err != nil {
		return "", err
	}
	if err := g.AddEdge(parent, key); err != nil {
		return "", err
	}
	return key, nil
}

// Slug lowercases meta and joins its whitespace-separated words with "-".
func Slug(meta string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(meta), unicode.IsSpace), "-")
}
