package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLSource handles HTML files. Headings become "#"-prefixed lines and
// each content block one line.
type HTMLSource struct{}

func (s *HTMLSource) Lines(r io.Reader, filename string) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	emit := func(text string) {
		for _, l := range splitLines(text) {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
	}

	// Explicit stack: nesting depth of real-world HTML is not bounded.
	start := findBody(doc)
	if start == nil {
		start = doc
	}
	stack := []*html.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := collapse(textContent(n)); t != "" {
					lines = append(lines, heading(level, t))
				}
				continue
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				continue
			case "pre":
				emit(textContent(n))
				continue
			case "p", "li", "td", "th", "blockquote", "dt", "dd":
				if t := collapse(textContent(n)); t != "" {
					lines = append(lines, t)
				}
				continue
			}
		}

		// Push children in reverse so the first child is visited first.
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return lines, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// collapse folds runs of whitespace, including newlines, into one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
