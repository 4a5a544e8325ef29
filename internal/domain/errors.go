package domain

import "fmt"

// The pipeline reports failures as tagged error values rather than panics.
// The HTTP layer maps each kind to a status code; the payload shape is a
// uniform {"error": ...} regardless of kind.

// SchemaError reports a missing, extra, or mistyped record field, or a
// post-preprocessing feature-name mismatch against the model's expected
// ordering.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error: field %q: %s", e.Field, e.Reason)
}

// ExplainabilityError reports that attribution could not run, typically an
// empty or schema-mismatched background reference set. It must never mask a
// valid score; the facade decides whether to fail the call or degrade to a
// score-only result.
type ExplainabilityError struct {
	Reason string
}

func (e *ExplainabilityError) Error() string {
	return "explainability error: " + e.Reason
}

// ModelError reports that the scoring computation itself failed, such as a
// corrupt artifact or a non-finite result.
type ModelError struct {
	Reason string
	Err    error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model error: %s: %v", e.Reason, e.Err)
	}
	return "model error: " + e.Reason
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
