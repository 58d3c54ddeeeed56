package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/docgraph/internal/query"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatTree    = "tree"
	formatOutline = "outline"
)

// writeValue prints v as JSON or YAML. With a jq expression each result
// of the query is printed instead.
func writeValue(ctx context.Context, w io.Writer, format, expr string, v any) error {
	if expr != "" {
		results, err := query.Run(ctx, expr, v)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := encode(w, format, r, false); err != nil {
				return err
			}
		}
		return nil
	}
	return encode(w, format, v, true)
}

func encode(w io.Writer, format string, v any, indent bool) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if indent {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported format: %s", format)
}
