package descriptor

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeDescriptor(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadNamed(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "legal.yaml", "components: [Chapter, Article]\npatterns: ['^Chapter', '^Article']\n")
	writeDescriptor(t, dir, "plain.json", `{"components": ["Part"], "patterns": ["^Part"]}`)

	spec, err := LoadNamed(dir, "legal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spec.Components) != 2 || spec.Components[1][0] != "Article" {
		t.Errorf("unexpected components %v", spec.Components)
	}

	spec, err = LoadNamed(dir, "plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spec.Patterns) != 1 {
		t.Errorf("expected 1 level, got %d", len(spec.Patterns))
	}
}

func TestLoadNamed_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadNamed(dir, "missing"); !errors.Is(err, ErrUnknownDescriptor) {
		t.Errorf("expected ErrUnknownDescriptor, got %v", err)
	}
	for _, name := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
		var invalid *InvalidDescriptorError
		if _, err := LoadNamed(dir, name); !errors.As(err, &invalid) {
			t.Errorf("%q: expected InvalidDescriptorError, got %v", name, err)
		}
	}
}

func TestListNamed(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "b.yml", "components: [A]\npatterns: ['^A']\n")
	writeDescriptor(t, dir, "a.yaml", "components: [A]\npatterns: ['^A']\n")
	writeDescriptor(t, dir, "a.json", `{}`)
	writeDescriptor(t, dir, "notes.txt", "ignored")

	names, err := ListNamed(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(names, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", names)
	}

	names, err = ListNamed(filepath.Join(dir, "nope"))
	if err != nil || len(names) != 0 {
		t.Errorf("expected empty list for missing dir, got %v, %v", names, err)
	}
}

func TestShippedDescriptorsNormalize(t *testing.T) {
	dir := filepath.Join("..", "..", "descriptors")
	names, err := ListNamed(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected shipped descriptors")
	}
	for _, name := range names {
		spec, err := LoadNamed(dir, name)
		if err != nil {
			t.Errorf("%s: load: %v", name, err)
			continue
		}
		if _, err := Normalize(spec); err != nil {
			t.Errorf("%s: normalize: %v", name, err)
		}
	}
}
