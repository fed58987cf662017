package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a malformed or engine-rejected query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexLocked signals a mutation attempted during an index maintenance lock.
	ErrIndexLocked = errors.New("index locked")
	// ErrEngineUnavailable signals a transport or timeout failure talking to the search engine.
	ErrEngineUnavailable = errors.New("search engine unavailable")
)

// UnknownFieldError reports a reference to a field that is not in the schema.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unrecognised field %q", e.Field)
}

// ImmutableFieldError reports an attempt to modify the document identity field.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("cannot change field %q", e.Field)
}

// QueryTooLongError wraps ErrInvalidQuery when the engine rejects a query
// for exceeding its clause-count budget.
type QueryTooLongError struct {
	MaxClauses int
}

func (e *QueryTooLongError) Error() string {
	return fmt.Sprintf("query must be less than %d words", e.MaxClauses)
}

func (e *QueryTooLongError) Unwrap() error { return ErrInvalidQuery }

// NumberOutOfRangeError wraps ErrInvalidQuery when a numeric parameter
// exceeds the engine's numeric-range budget.
type NumberOutOfRangeError struct {
	Value string
}

func (e *NumberOutOfRangeError) Error() string {
	return fmt.Sprintf("integer value of %s exceeds maximum allowed", e.Value)
}

func (e *NumberOutOfRangeError) Unwrap() error { return ErrInvalidQuery }

// BulkIndexError reports the document ids that failed during a bulk mutation.
type BulkIndexError struct {
	FailedIDs []string
}

func (e *BulkIndexError) Error() string {
	return fmt.Sprintf("failed inserts: %v", e.FailedIDs)
}
