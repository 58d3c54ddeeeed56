package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextSource handles plain text files. Every line is kept verbatim,
// blank lines included.
type TextSource struct{}

func (s *TextSource) Lines(r io.Reader, filename string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
