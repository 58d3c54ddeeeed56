package pathstore

import (
	"net/url"
	"strings"
)

// Key layout for published documents:
//
//	docgraph/documents/<docID>/<node id segments...>   one node per tree node
//	docgraph/meta/<docID>                              document summary
//
// Meta lives outside the document subtree so that a root label can never
// collide with it.
const Prefix = "docgraph"

// DocumentKey is the subtree holding every node of docID.
func DocumentKey(docID string) string {
	return Prefix + "/documents/" + segment(docID)
}

// MetaKey is the summary node of docID.
func MetaKey(docID string) string {
	return Prefix + "/meta/" + segment(docID)
}

// MetaPrefix is scanned to list published documents.
func MetaPrefix() string {
	return Prefix + "/meta"
}

// NodeKey maps a hierarchical node id ("/root/chapter-1-1") below the
// document subtree. Dots are the pathstore separator and are replaced.
func NodeKey(docID, nodeID string) string {
	var b strings.Builder
	b.WriteString(DocumentKey(docID))
	for s := range strings.SplitSeq(strings.Trim(nodeID, "/"), "/") {
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(segment(s))
	}
	return b.String()
}

func segment(s string) string {
	return url.PathEscape(strings.ReplaceAll(s, ".", "_"))
}
