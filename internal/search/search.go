// Package search filters graph nodes by predicate, either forward from a
// source (DFS or BFS) or upward through its ancestors.
package search

import (
	"iter"

	"github.com/dgallion1/docgraph/internal/graph"
)

// Order selects the traversal used by FilterForward.
type Order int

const (
	DFS Order = iota
	BFS
)

func (o Order) String() string {
	if o == BFS {
		return "bfs"
	}
	return "dfs"
}

// Predicate reports whether a node's attributes are a hit.
type Predicate func(*graph.Attrs) bool

// FilterForward lazily yields the keys reachable from source whose
// attributes satisfy pred, source included. An empty source means the
// root. Each call starts a fresh traversal; the graph must not be mutated
// while iterating.
func FilterForward(g graph.Backbone, pred Predicate, source graph.Key, order Order) iter.Seq[graph.Key] {
	return func(yield func(graph.Key) bool) {
		if source == "" {
			source = g.Root()
		}
		attrs, ok := g.Get(source)
		if !ok {
			return
		}
		if pred(attrs) && !yield(source) {
			return
		}

		edges := g.DFSEdges(source)
		if order == BFS {
			edges = g.BFSEdges(source)
		}
		for _, child := range edges {
			attrs, ok := g.Get(child)
			if !ok || !pred(attrs) {
				continue
			}
			if !yield(child) {
				return
			}
		}
	}
}

// FilterDFS is FilterForward in depth-first order.
func FilterDFS(g graph.Backbone, pred Predicate, source graph.Key) iter.Seq[graph.Key] {
	return FilterForward(g, pred, source, DFS)
}

// FilterBFS is FilterForward in breadth-first order.
func FilterBFS(g graph.Backbone, pred Predicate, source graph.Key) iter.Seq[graph.Key] {
	return FilterForward(g, pred, source, BFS)
}

// FilterAncestors lazily yields the strict ancestors of source that satisfy
// pred, nearest first. The root is never yielded. The walk uses an explicit
// stack so depth is bounded by memory, not the call stack.
func FilterAncestors(g graph.Backbone, source graph.Key, pred Predicate) iter.Seq[graph.Key] {
	return func(yield func(graph.Key) bool) {
		root := g.Root()
		visited := map[graph.Key]bool{source: true}

		stack := reversed(g.Predecessors(source))
		for len(stack) > 0 {
			k := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[k] || k == root {
				continue
			}
			visited[k] = true

			if attrs, ok := g.Get(k); ok && pred(attrs) {
				if !yield(k) {
					return
				}
			}
			stack = append(stack, reversed(g.Predecessors(k))...)
		}
	}
}

// First returns the first key of seq.
func First(seq iter.Seq[graph.Key]) (graph.Key, bool) {
	for k := range seq {
		return k, true
	}
	return "", false
}

func reversed(keys []graph.Key) []graph.Key {
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}
