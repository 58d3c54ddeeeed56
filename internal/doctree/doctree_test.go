package doctree

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/docgraph/internal/builder"
	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/graph"
	"github.com/dgallion1/docgraph/internal/search"
)

var policy = []string{
	"Preamble",
	"Chapter 1 Scope",
	"Article 1 Purpose",
	"text of article one",
	"Article 2 Definitions",
	"Chapter 2 Rules",
	"Point 1 first point",
	"Article 3 Duties",
	"Point 2 second point",
}

func policyDoc(t *testing.T, padding bool) *Document {
	t.Helper()
	d, err := descriptor.Normalize(descriptor.Spec{
		Components: descriptor.Components("Chapter", "Article", "Point"),
		Patterns:   descriptor.Exprs(`^Chapter \d+`, `^Article \d+`, `^Point \d+`),
		Padding:    padding,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	g, err := builder.New(nil).Build(slices.Values(policy), d)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return New(g)
}

func collectKeys(seq func(func(graph.Key, *graph.Attrs) bool)) []graph.Key {
	var out []graph.Key
	for k := range seq {
		out = append(out, k)
	}
	return out
}

func TestDocument_TraverseInInsertionOrder(t *testing.T) {
	doc := policyDoc(t, false)
	got := collectKeys(doc.Traverse())
	want := []graph.Key{
		"ROOT [0]", "Chapter 1 [1]", "Article 1 [2]", "Article 2 [3]",
		"Chapter 2 [4]", "Point 1 [5]", "Article 3 [6]", "Point 2 [7]",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if doc.Root() != "ROOT [0]" || doc.ID() != "/root" || doc.Name() != "root" {
		t.Errorf("unexpected root %q id=%q name=%q", doc.Root(), doc.ID(), doc.Name())
	}
}

func TestDocument_Depths(t *testing.T) {
	doc := policyDoc(t, true)
	if doc.MaxDepth() != 3 {
		t.Errorf("expected max depth 3, got %d", doc.MaxDepth())
	}
	if doc.ActiveDepth() != 1 {
		t.Errorf("expected active depth 1, got %d", doc.ActiveDepth())
	}

	d, _ := descriptor.Normalize(descriptor.Spec{
		Components: descriptor.Components("A", "B"),
		Patterns:   descriptor.Exprs(`^A`, `^B`),
		Padding:    true,
	})
	g, err := builder.New(nil).Build(slices.Values([]string{"B only"}), d)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := New(g).ActiveDepth(); got != 2 {
		t.Errorf("expected active depth to skip padding, got %d", got)
	}
}

func TestDocument_Lookups(t *testing.T) {
	doc := policyDoc(t, false)

	k, a, ok := doc.IDEndingWith("article-2-3")
	if !ok || k != "Article 2 [3]" || a.Level != 2 {
		t.Errorf("IDEndingWith: unexpected %q %+v %v", k, a, ok)
	}
	if _, _, ok := doc.IDEndingWith("nothing"); ok {
		t.Error("IDEndingWith: expected no match")
	}

	k, _, ok = doc.Search("Chapter 2")
	if !ok || k != "Chapter 2 [4]" {
		t.Errorf("Search: expected Chapter 2 [4], got %q %v", k, ok)
	}

	got := doc.SearchByPattern(regexp.MustCompile(`^Point`), nil)
	if !slices.Equal(got, []graph.Key{"Point 1 [5]", "Point 2 [7]"}) {
		t.Errorf("SearchByPattern: unexpected %v", got)
	}
	got = doc.SearchByPattern(regexp.MustCompile(`Duties`), func(a *graph.Attrs) string {
		return strings.Join(a.Text, "\n")
	})
	if !slices.Equal(got, []graph.Key{"Article 3 [6]"}) {
		t.Errorf("SearchByPattern on text: unexpected %v", got)
	}
}

func TestDocument_NodesLeavesParagraphs(t *testing.T) {
	doc := policyDoc(t, false)

	if got := collectKeys(doc.Nodes(1)); !slices.Equal(got, []graph.Key{"Chapter 1 [1]", "Chapter 2 [4]"}) {
		t.Errorf("Nodes(1): unexpected %v", got)
	}
	leaves := collectKeys(doc.LeafNodes())
	want := []graph.Key{"Article 1 [2]", "Article 2 [3]", "Point 1 [5]", "Point 2 [7]"}
	if !slices.Equal(leaves, want) {
		t.Errorf("LeafNodes: expected %v, got %v", want, leaves)
	}
	if got := collectKeys(doc.Paragraphs()); !slices.Equal(got, []graph.Key{"Point 1 [5]", "Point 2 [7]"}) {
		t.Errorf("Paragraphs: unexpected %v", got)
	}
}

func TestDocument_FlatReport(t *testing.T) {
	doc := policyDoc(t, true)

	report := doc.FlatReport(false)
	if report[1] != 2 || report[2] != 3 || report[3] != 0 || report[0] != 1 {
		t.Errorf("unexpected report without leafs: %v", report)
	}
	report = doc.FlatReport(true)
	if report[3] != 2 {
		t.Errorf("expected 2 level-3 nodes with leafs, got %v", report)
	}
	if pad, _ := doc.Node("Article [5]"); !pad.Pad {
		t.Fatalf("expected a padding node between Chapter 2 and Point 1")
	}
	if got := SortedLevels(report); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("unexpected sorted levels %v", got)
	}
}

func TestDocument_TextAndOutline(t *testing.T) {
	doc := policyDoc(t, false)
	if got := doc.Text(true); !slices.Equal(got, policy) {
		t.Errorf("expected text to reassemble the input, got %q", got)
	}

	want := "root\nChapter 1\n\tArticle 1\n\tArticle 2\nChapter 2\n\t\tPoint 1\n\tArticle 3\n\t\tPoint 2\n"
	if got := doc.String(); got != want {
		t.Errorf("expected outline:\n%s\ngot:\n%s", want, got)
	}
}

func TestDocument_MapValuesLeavesOriginal(t *testing.T) {
	doc := policyDoc(t, false)
	mapped := doc.MapValues(func(a *graph.Attrs) {
		a.Content = make([]string, len(a.Text))
		for i, l := range a.Text {
			a.Content[i] = strings.ToUpper(l)
		}
	})

	orig, _ := doc.Node("Article 1 [2]")
	if orig.Content != nil {
		t.Errorf("expected original untouched, got content %q", orig.Content)
	}
	got, _ := mapped.Node("Article 1 [2]")
	if got.Content[0] != "ARTICLE 1 PURPOSE" {
		t.Errorf("expected mapped content, got %q", got.Content)
	}
	if text := mapped.Text(false); text[0] != "PREAMBLE" {
		t.Errorf("expected cleaned text to prefer content, got %q", text[0])
	}
	if text := mapped.Text(true); text[0] != "Preamble" {
		t.Errorf("expected raw text, got %q", text[0])
	}
}

func TestDocument_CopyIsIndependent(t *testing.T) {
	doc := policyDoc(t, false)
	c := doc.Copy()
	a, _ := c.Node("Chapter 1 [1]")
	a.Text = append(a.Text, "extra")
	orig, _ := doc.Node("Chapter 1 [1]")
	if slices.Contains(orig.Text, "extra") {
		t.Error("expected copy to be independent of the original")
	}
}

func TestDocument_Filter(t *testing.T) {
	doc := policyDoc(t, false)
	isPoint := func(a *graph.Attrs) bool { return a.Level == 3 }

	var dfs, bfs []graph.Key
	for k := range doc.Filter(isPoint, "", search.DFS) {
		dfs = append(dfs, k)
	}
	for k := range doc.Filter(isPoint, "", search.BFS) {
		bfs = append(bfs, k)
	}
	slices.Sort(dfs)
	slices.Sort(bfs)
	if !slices.Equal(dfs, bfs) || len(dfs) != 2 {
		t.Errorf("expected same two points for both orders, got %v and %v", dfs, bfs)
	}

	var chain []graph.Key
	for k := range doc.Ancestors("Point 2 [7]", func(*graph.Attrs) bool { return true }) {
		chain = append(chain, k)
	}
	if !slices.Equal(chain, []graph.Key{"Article 3 [6]", "Chapter 2 [4]"}) {
		t.Errorf("unexpected ancestors %v", chain)
	}
}

func TestDocument_DictRoundTrip(t *testing.T) {
	doc := policyDoc(t, true)
	s := doc.ToDict()

	if s.DocumentName != "root" || len(s.Nodes) != doc.Len() {
		t.Fatalf("unexpected serialized header %q with %d nodes", s.DocumentName, len(s.Nodes))
	}
	if s.Nodes[0].Key != "ROOT [0]" || len(s.Nodes[0].Predecessors) != 0 {
		t.Errorf("expected root first with no predecessors, got %+v", s.Nodes[0])
	}

	back, err := FromDict(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Root() != doc.Root() || back.String() != doc.String() {
		t.Errorf("expected equivalent document, got outline:\n%s", back.String())
	}
	for k, a := range doc.Traverse() {
		b, ok := back.Node(k)
		if !ok || b.ID != a.ID || !slices.Equal(b.Text, a.Text) {
			t.Errorf("%s: expected %+v, got %+v", k, a, b)
		}
		if !slices.Equal(back.Successors(k), doc.Successors(k)) {
			t.Errorf("%s: successors differ", k)
		}
	}
	if n := back.Graph().NextID(); n != doc.Len() {
		t.Errorf("expected id counter to resume at %d, got %d", doc.Len(), n)
	}
}

func TestDocument_JSON(t *testing.T) {
	doc := policyDoc(t, false)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"document_name":"root"`) {
		t.Errorf("expected document_name in %s", data)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Len() != doc.Len() {
		t.Errorf("expected %d nodes, got %d", doc.Len(), back.Len())
	}
}

func TestFromDict_Errors(t *testing.T) {
	if _, err := FromDict(Serialized{}); err == nil {
		t.Error("expected error for empty document")
	}
	_, err := FromDict(Serialized{Nodes: []SerializedNode{
		{Key: "ROOT [0]", Successors: []graph.Key{"MISSING [1]"}},
	}})
	if err == nil {
		t.Error("expected error for dangling edge")
	}
}
