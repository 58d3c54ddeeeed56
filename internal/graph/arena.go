package graph

import (
	"fmt"
	"iter"
	"strings"
)

type arenaNode struct {
	key      Key
	attrs    *Attrs
	parents  []int
	children []int
}

// Arena is a Backbone that keeps nodes in a growable slice and edges as
// index lists. It is not safe for concurrent mutation.
type Arena struct {
	nodes  []arenaNode
	index  map[Key]int
	nextID int
	root   Key
}

func NewArena() *Arena {
	return &Arena{index: make(map[Key]int)}
}

func (a *Arena) Initialize(rootLabel string) Key {
	a.nodes = nil
	a.index = make(map[Key]int)
	a.nextID = 0

	meta := strings.ToLower(rootLabel)
	key := NewKey(rootLabel, a.NextID())
	a.root = key
	a.AddNode(key, &Attrs{Meta: meta, Level: 0, Text: []string{}, ID: "/" + meta})
	return key
}

func (a *Arena) Root() Key {
	return a.root
}

func (a *Arena) AddNode(key Key, attrs *Attrs) error {
	if _, ok := a.index[key]; ok {
		return fmt.Errorf("add node %q: %w", key, ErrDuplicateNode)
	}
	if attrs == nil {
		attrs = &Attrs{}
	}
	a.index[key] = len(a.nodes)
	a.nodes = append(a.nodes, arenaNode{key: key, attrs: attrs})
	return nil
}

func (a *Arena) AddEdge(parent, child Key) error {
	p, ok := a.index[parent]
	if !ok {
		return fmt.Errorf("add edge from %q: %w", parent, ErrUnknownNode)
	}
	c, ok := a.index[child]
	if !ok {
		return fmt.Errorf("add edge to %q: %w", child, ErrUnknownNode)
	}
	for _, existing := range a.nodes[p].children {
		if existing == c {
			return nil
		}
	}
	a.nodes[p].children = append(a.nodes[p].children, c)
	a.nodes[c].parents = append(a.nodes[c].parents, p)
	return nil
}

func (a *Arena) NextID() int {
	id := a.nextID
	a.nextID++
	return id
}

// SetNextID moves the counter forward; used when a graph is rebuilt from
// its serialized form. It never moves the counter backwards.
func (a *Arena) SetNextID(n int) {
	if n > a.nextID {
		a.nextID = n
	}
}

// SetRoot marks an existing node as the root.
func (a *Arena) SetRoot(key Key) error {
	if _, ok := a.index[key]; !ok {
		return fmt.Errorf("set root %q: %w", key, ErrUnknownNode)
	}
	a.root = key
	return nil
}

func (a *Arena) Get(key Key) (*Attrs, bool) {
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.nodes[i].attrs, true
}

func (a *Arena) Predecessors(key Key) []Key {
	i, ok := a.index[key]
	if !ok {
		return nil
	}
	return a.keysOf(a.nodes[i].parents)
}

func (a *Arena) Successors(key Key) []Key {
	i, ok := a.index[key]
	if !ok {
		return nil
	}
	return a.keysOf(a.nodes[i].children)
}

func (a *Arena) keysOf(idx []int) []Key {
	out := make([]Key, len(idx))
	for j, i := range idx {
		out[j] = a.nodes[i].key
	}
	return out
}

// DFSEdges yields tree edges of a depth-first traversal from source,
// visiting children in insertion order. An empty source means the root.
func (a *Arena) DFSEdges(source Key) iter.Seq2[Key, Key] {
	return func(yield func(Key, Key) bool) {
		start, ok := a.start(source)
		if !ok {
			return
		}
		type frame struct {
			node int
			next int
		}
		visited := map[int]bool{start: true}
		stack := []frame{{node: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := a.nodes[top.node].children
			if top.next >= len(children) {
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			if visited[child] {
				continue
			}
			visited[child] = true
			if !yield(a.nodes[top.node].key, a.nodes[child].key) {
				return
			}
			stack = append(stack, frame{node: child})
		}
	}
}

// BFSEdges yields tree edges of a breadth-first traversal from source.
// An empty source means the root.
func (a *Arena) BFSEdges(source Key) iter.Seq2[Key, Key] {
	return func(yield func(Key, Key) bool) {
		start, ok := a.start(source)
		if !ok {
			return
		}
		visited := map[int]bool{start: true}
		queue := []int{start}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			for _, child := range a.nodes[n].children {
				if visited[child] {
					continue
				}
				visited[child] = true
				if !yield(a.nodes[n].key, a.nodes[child].key) {
					return
				}
				queue = append(queue, child)
			}
		}
	}
}

func (a *Arena) start(source Key) (int, bool) {
	if source == "" {
		source = a.root
	}
	i, ok := a.index[source]
	return i, ok
}

func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) Keys() []Key {
	out := make([]Key, len(a.nodes))
	for i, n := range a.nodes {
		out[i] = n.key
	}
	return out
}

// Clone returns a deep, independent copy of the graph.
func (a *Arena) Clone() Backbone {
	c := &Arena{
		nodes:  make([]arenaNode, len(a.nodes)),
		index:  make(map[Key]int, len(a.index)),
		nextID: a.nextID,
		root:   a.root,
	}
	for i, n := range a.nodes {
		c.nodes[i] = arenaNode{
			key:      n.key,
			attrs:    n.attrs.Clone(),
			parents:  append([]int(nil), n.parents...),
			children: append([]int(nil), n.children...),
		}
		c.index[n.key] = i
	}
	return c
}
