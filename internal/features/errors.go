package features

import "fmt"

// SchemaError indicates a snapshot is missing a field that has no
// documented default. Surfaced to the caller immediately, never retried.
type SchemaError struct {
	Field string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("features: snapshot missing required field %q with no default", e.Field)
}

// ErrMissingField builds a SchemaError for the given field
func ErrMissingField(field string) error {
	return SchemaError{Field: field}
}
