// Package query runs jq expressions over documents and other values that
// have a JSON form.
package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Query is a compiled jq expression.
type Query struct {
	src  string
	code *gojq.Code
}

// Compile parses and compiles expr.
func Compile(expr string) (*Query, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return &Query{src: expr, code: code}, nil
}

func (q *Query) String() string { return q.src }

// Run evaluates q against v and collects every result. v is first
// converted through its JSON encoding, so structs with json tags are
// seen the way they serialize.
func (q *Query) Run(ctx context.Context, v any) ([]any, error) {
	in, err := normalize(v)
	if err != nil {
		return nil, err
	}
	results := []any{}
	iter := q.code.RunWithContext(ctx, in)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			return nil, fmt.Errorf("query error: %w", err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Run compiles expr and evaluates it against v.
func Run(ctx context.Context, expr string, v any) ([]any, error) {
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Run(ctx, v)
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode query input: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode query input: %w", err)
	}
	return out, nil
}
