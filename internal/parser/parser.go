// Package parser turns uploaded documents into the ordered text lines the
// hierarchy builder consumes.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Source converts raw document bytes into text lines, in reading order.
// Structural headings, where the format has them, are rendered as
// "#"-prefixed lines so that descriptors can target them.
type Source interface {
	Lines(r io.Reader, filename string) ([]string, error)
}

// Options tunes the sources returned by ForFile.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate source for a filename.
func ForFile(filename string, opts Options) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".text":
		return &TextSource{}, nil
	case ".md", ".markdown":
		return &MarkdownSource{}, nil
	case ".csv":
		return &CSVSource{}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".pdf":
		return &PDFSource{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// heading renders a structural heading as a line.
func heading(level int, title string) string {
	return strings.Repeat("#", level) + " " + title
}

// splitLines breaks text on newlines, dropping carriage returns.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
