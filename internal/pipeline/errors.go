package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTimestamp is returned when createdAt cannot be parsed
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrMissingField is returned when a record lacks a required field
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField is returned when a field has an unusable type or value
	ErrInvalidField = errors.New("invalid field")
	// ErrUnknownField is returned when an aggregation names a field records do not have
	ErrUnknownField = errors.New("unknown field")
	// ErrEmptyReferenceCurrency is returned when no reference symbol is configured
	ErrEmptyReferenceCurrency = errors.New("empty reference currency symbol")
)

// RecordError ties a failure to the record that caused it
type RecordError struct {
	Index int    // position in the input batch
	ID    string // document id, if known
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	ref := fmt.Sprintf("record %d", e.Index)
	if e.ID != "" {
		ref = fmt.Sprintf("record %d (%s)", e.Index, e.ID)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", ref, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", ref, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func recordError(index int, id, field string, err error) *RecordError {
	return &RecordError{Index: index, ID: id, Field: field, Err: err}
}

// FieldError is a decoding failure on a single field
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

func fieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}
