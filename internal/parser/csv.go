package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVSource handles CSV files. The header row is kept as the first line;
// each data row becomes one "header: value, ..." line.
type CSVSource struct{}

func (s *CSVSource) Lines(r io.Reader, filename string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	lines := []string{strings.Join(headers, ", ")}
	for _, row := range records[1:] {
		var text strings.Builder
		for j, cell := range row {
			if j > 0 {
				text.WriteString(", ")
			}
			if j < len(headers) {
				text.WriteString(headers[j] + ": " + cell)
			} else {
				text.WriteString(cell)
			}
		}
		lines = append(lines, text.String())
	}
	return lines, nil
}
