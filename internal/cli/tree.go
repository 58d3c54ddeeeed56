package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/dgallion1/docgraph/internal/doctree"
	"github.com/dgallion1/docgraph/internal/graph"
)

// levelColors cycle by depth.
var levelColors = []lipgloss.Color{"81", "42", "220", "205", "141"}

// renderTree draws doc as a box-drawing tree. Colors are only emitted when
// w is a terminal.
func renderTree(w io.Writer, doc *doctree.Document) error {
	r := lipgloss.NewRenderer(w)
	dim := r.NewStyle().Foreground(lipgloss.Color("240"))
	branch := dim.PaddingRight(1)
	rootStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("160"))

	trees := make(map[graph.Key]*tree.Tree, doc.Len())
	root := tree.Root(rootStyle.Render(doc.Name())).EnumeratorStyle(branch)
	trees[doc.Root()] = root

	for key, a := range doc.Traverse() {
		if key == doc.Root() {
			continue
		}
		var label string
		if a.Pad {
			label = dim.Render(fmt.Sprintf("(%s)", a.Meta))
		} else {
			style := r.NewStyle().Foreground(levelColors[(a.Level-1)%len(levelColors)])
			label = style.Render(a.Meta) + " " + dim.Render(a.ID)
		}
		t := tree.Root(label).EnumeratorStyle(branch)
		trees[key] = t
		for _, parent := range doc.Predecessors(key) {
			if pt, ok := trees[parent]; ok {
				pt.Child(t)
			}
		}
	}

	_, err := fmt.Fprintln(w, root.String())
	return err
}
