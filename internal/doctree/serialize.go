package doctree

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/docgraph/internal/graph"
)

// Serialized is the interchange form of a document.
type Serialized struct {
	DocumentName string           `json:"document_name" yaml:"document_name"`
	Nodes        []SerializedNode `json:"nodes" yaml:"nodes"`
}

// SerializedNode is one node with its adjacency.
type SerializedNode struct {
	Key          graph.Key    `json:"key" yaml:"key"`
	Content      *graph.Attrs `json:"content" yaml:"content"`
	Successors   []graph.Key  `json:"successors" yaml:"successors"`
	Predecessors []graph.Key  `json:"predecessors" yaml:"predecessors"`
}

// ToDict returns the serialized form, nodes in insertion order. Attributes
// are copied.
func (d *Document) ToDict() Serialized {
	out := Serialized{DocumentName: d.Name()}
	for k, a := range d.Traverse() {
		succ := d.g.Successors(k)
		pred := d.g.Predecessors(k)
		if succ == nil {
			succ = []graph.Key{}
		}
		if pred == nil {
			pred = []graph.Key{}
		}
		out.Nodes = append(out.Nodes, SerializedNode{
			Key:          k,
			Content:      a.Clone(),
			Successors:   succ,
			Predecessors: pred,
		})
	}
	return out
}

// FromDict rebuilds a document. The first node is taken as the root, and
// the id counter resumes after the highest key number.
func FromDict(s Serialized) (*Document, error) {
	if len(s.Nodes) == 0 {
		return nil, errors.New("from dict: no nodes")
	}
	g := graph.NewArena()
	next := 0
	for _, n := range s.Nodes {
		attrs := n.Content.Clone()
		if attrs == nil {
			attrs = &graph.Attrs{Text: []string{}}
		}
		if err := g.AddNode(n.Key, attrs); err != nil {
			return nil, fmt.Errorf("from dict: %w", err)
		}
		if num, ok := graph.KeyNumber(n.Key); ok {
			next = max(next, num+1)
		}
	}
	for _, n := range s.Nodes {
		for _, p := range n.Predecessors {
			if err := g.AddEdge(p, n.Key); err != nil {
				return nil, fmt.Errorf("from dict: %w", err)
			}
		}
		for _, c := range n.Successors {
			if err := g.AddEdge(n.Key, c); err != nil {
				return nil, fmt.Errorf("from dict: %w", err)
			}
		}
	}
	if err := g.SetRoot(s.Nodes[0].Key); err != nil {
		return nil, fmt.Errorf("from dict: %w", err)
	}
	g.SetNextID(next)
	return New(g), nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToDict())
}

// Unmarshal decodes a JSON document produced by MarshalJSON.
func Unmarshal(data []byte) (*Document, error) {
	var s Serialized
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return FromDict(s)
}
