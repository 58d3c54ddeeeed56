// Package parsing is the one-call entry point: normalize a descriptor,
// build the hierarchy and clean its content.
package parsing

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/dgallion1/docgraph/internal/builder"
	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/doctree"
	"github.com/dgallion1/docgraph/internal/graph"
	"github.com/dgallion1/docgraph/internal/parser"
)

// Parser holds the collaborators shared by every parse. A zero Parser is
// usable.
type Parser struct {
	Logger  *slog.Logger
	Sources parser.Options
}

func (p *Parser) logger() *slog.Logger {
	if p == nil || p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Lines builds a document from lines using an already normalized
// descriptor, then runs the exclusion pass.
func (p *Parser) Lines(lines iter.Seq[string], d *descriptor.Descriptor) (*doctree.Document, error) {
	g, err := builder.New(p.logger()).Build(lines, d)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	return Clean(doctree.New(g), d.Exclude), nil
}

// Reader reads filename's content from r with the source matching its
// extension and builds a document from the resulting lines.
func (p *Parser) Reader(r io.Reader, filename string, d *descriptor.Descriptor) (*doctree.Document, error) {
	src, err := parser.ForFile(filename, p.Sources)
	if err != nil {
		return nil, err
	}
	lines, err := src.Lines(r, filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(filename), err)
	}
	p.logger().Debug("lines extracted", "filename", filepath.Base(filename), "lines", len(lines))
	return p.Lines(slices.Values(lines), d)
}

// File opens path and parses it like Reader.
func (p *Parser) File(path string, d *descriptor.Descriptor) (*doctree.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return p.Reader(f, path, d)
}

// Clean returns a copy of doc in which every node's content is its text
// with each exclusion pattern removed, applied in order.
func Clean(doc *doctree.Document, exclude []*regexp.Regexp) *doctree.Document {
	return doc.MapValues(func(a *graph.Attrs) {
		a.Content = make([]string, len(a.Text))
		for i, line := range a.Text {
			for _, re := range exclude {
				line = re.ReplaceAllString(line, "")
			}
			a.Content[i] = line
		}
	})
}

// ParseLines normalizes spec and parses lines.
func ParseLines(lines iter.Seq[string], spec descriptor.Spec) (*doctree.Document, error) {
	d, err := descriptor.Normalize(spec)
	if err != nil {
		return nil, err
	}
	return (&Parser{}).Lines(lines, d)
}

// ParseReader normalizes spec and parses r as filename.
func ParseReader(r io.Reader, filename string, spec descriptor.Spec) (*doctree.Document, error) {
	d, err := descriptor.Normalize(spec)
	if err != nil {
		return nil, err
	}
	return (&Parser{}).Reader(r, filename, d)
}

// ParseFile normalizes spec and parses the file at path.
func ParseFile(path string, spec descriptor.Spec) (*doctree.Document, error) {
	d, err := descriptor.Normalize(spec)
	if err != nil {
		return nil, err
	}
	return (&Parser{}).File(path, d)
}
