package descriptor

import "fmt"

// InvalidDescriptorError reports a descriptor rejected at normalization
// time, before any line is processed.
type InvalidDescriptorError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid descriptor: %s: %s", e.Field, e.Reason)
}

func (e *InvalidDescriptorError) Unwrap() error {
	return e.Err
}

// MalformedInlineDataError reports inline literal data that does not parse
// as a map. It aborts the build.
type MalformedInlineDataError struct {
	Text string
	Err  error
}

func (e *MalformedInlineDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed inline data %q: %v", e.Text, e.Err)
	}
	return fmt.Sprintf("malformed inline data %q: not a map", e.Text)
}

func (e *MalformedInlineDataError) Unwrap() error {
	return e.Err
}
