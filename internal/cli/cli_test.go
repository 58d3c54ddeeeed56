package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docgraph/internal/doctree"
	"gopkg.in/yaml.v3"
)

const policyText = `Preamble
Chapter 1 Scope
Article 1 Purpose [draft]
text of article one
Article 2 Terms
Chapter 2 Rules
Point 1 first point
`

const policyDescriptor = `components: [Chapter, Article, Point]
patterns: ['^Chapter \d+', '^Article \d+', '^Point \d+']
exclude: ['\s*\[draft\]']
`

// fixture writes the policy document and descriptor and returns their
// paths.
func fixture(t *testing.T) (doc, desc string) {
	t.Helper()
	dir := t.TempDir()
	doc = filepath.Join(dir, "policy.txt")
	desc = filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(doc, []byte(policyText), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	if err := os.WriteFile(desc, []byte(policyDescriptor), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return doc, desc
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParse_DefaultsToJSONWhenNotATerminal(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := doctree.Unmarshal([]byte(out))
	if err != nil {
		t.Fatalf("expected document JSON, got %v:\n%s", err, out)
	}
	if back.Len() != 6 {
		t.Errorf("expected 6 nodes, got %d", back.Len())
	}
	a, _ := back.Node("Article 1 [2]")
	if a.Content[0] != "Article 1 Purpose" {
		t.Errorf("expected excluded text removed from content, got %q", a.Content[0])
	}
}

func TestParse_Raw(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc, "--raw", "-q", `.nodes[2].content.content[0]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != `"Article 1 Purpose [draft]"` {
		t.Errorf("expected raw content, got %s", out)
	}
}

func TestParse_Outline(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc, "-f", "outline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "root\nChapter 1\n\tArticle 1\n\tArticle 2\nChapter 2\n\t\tPoint 1\n"
	if out != want {
		t.Errorf("expected outline:\n%s\ngot:\n%s", want, out)
	}
}

func TestParse_Tree(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc, "-f", "tree", "--padding")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"root", "Chapter 1", "/root/chapter-1-1/article-2-3", "(Article)", "Point 1", "└──"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in tree:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no colour codes when not writing to a terminal:\n%q", out)
	}
}

func TestParse_Query(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc, "-q", `.nodes[] | select(.content.level == 1) | .key`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "\"Chapter 1 [1]\"\n\"Chapter 2 [4]\"\n" {
		t.Errorf("unexpected query output %q", out)
	}

	if _, err := run(t, "", "parse", doc, "-d", desc, "-q", `.nodes[`); err == nil {
		t.Error("expected error for invalid query")
	}
	if _, err := run(t, "", "parse", doc, "-d", desc, "-q", `.`, "-f", "outline"); err == nil {
		t.Error("expected error combining query with outline")
	}
}

func TestParse_YAML(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc, "-f", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var s doctree.Serialized
	if err := yaml.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("expected YAML document, got %v", err)
	}
	if s.DocumentName != "root" || len(s.Nodes) != 6 || s.Nodes[1].Content.Meta != "Chapter 1" {
		t.Errorf("unexpected YAML document %+v", s)
	}
}

func TestParse_Chunks(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-d", desc, "--chunks", "--min-chunk", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var chunks []doctree.Chunk
	if err := json.Unmarshal([]byte(out), &chunks); err != nil {
		t.Fatalf("expected chunk JSON, got %v", err)
	}
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}
	last := chunks[5]
	if last.NodeKey != "Point 1 [5]" || strings.Join(last.Breadcrumb, " > ") != "Chapter 2 > Point 1" {
		t.Errorf("unexpected last chunk %+v", last)
	}
}

func TestParse_Stdin(t *testing.T) {
	_, desc := fixture(t)
	out, err := run(t, "Chapter 1 only\nbody\n", "parse", "-", "-d", desc, "-f", "outline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "root\nChapter 1\n" {
		t.Errorf("unexpected outline %q", out)
	}
}

func TestParse_NamedDescriptor(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "parse", doc, "-n", "policy", "--descriptor-dir", filepath.Dir(desc), "-f", "outline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "root\nChapter 1\n") {
		t.Errorf("unexpected outline %q", out)
	}
}

func TestParse_Errors(t *testing.T) {
	doc, desc := fixture(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no descriptor", []string{"parse", doc}},
		{"both descriptor flags", []string{"parse", doc, "-d", desc, "-n", "policy"}},
		{"missing file", []string{"parse", filepath.Join(t.TempDir(), "none.txt"), "-d", desc}},
		{"unsupported file", []string{"parse", desc + ".png", "-d", desc}},
		{"unknown format", []string{"parse", doc, "-d", desc, "-f", "xml"}},
		{"no args", []string{"parse", "-d", desc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, "", tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	doc, desc := fixture(t)
	out, err := run(t, "", "validate", "-d", desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ROOT", "exclude  1 pattern(s)", `^Chapter \d+`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if f := strings.Fields(lines[len(lines)-1]); len(f) < 2 || f[0] != "3" || f[1] != "Point" {
		t.Errorf("expected level 3 row last, got %q", lines[len(lines)-1])
	}

	out, err = run(t, "", "validate", "-d", desc, "--sample", doc, "--leafs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"6 nodes, max depth 3", "1  Chapter  2", "2  Article  2", "3  Point    1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestValidate_InvalidDescriptor(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("components: [A, B]\npatterns: ['^A']\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "validate", "-d", bad); err == nil {
		t.Error("expected error for mismatched levels")
	}
}
