package doctree

import "github.com/dgallion1/docgraph/internal/graph"

// Chunk is a sized text segment with structural context, ready for
// indexing or retrieval.
type Chunk struct {
	Text       string    `json:"text"`
	Index      int       `json:"index"`      // Sequence number within document
	Breadcrumb []string  `json:"breadcrumb"` // Ancestor labels, e.g. ["Schedule 1", "PART 1", "1."]
	NodeKey    graph.Key `json:"node_key"`
	NodeID     string    `json:"node_id"`
	Level      int       `json:"level"`
}
