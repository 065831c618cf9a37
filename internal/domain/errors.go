package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBuild signals a query specification that cannot be translated into a request body.
	ErrBuild = errors.New("invalid query")
	// ErrExecution signals a failed backend call, a timeout or a malformed response.
	ErrExecution = errors.New("search execution failed")
	// ErrIndexRange signals a positional read outside the evaluated page.
	ErrIndexRange = errors.New("index out of range")
	// ErrResolutionDrift signals a hit whose record no longer exists in the record store.
	ErrResolutionDrift = errors.New("record not found for hit")
	// ErrUnknownKind signals a record kind that is not configured.
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrNotSupported signals a query feature the backend cannot serve.
	ErrNotSupported = errors.New("not supported by backend")
)

// BuildError wraps ErrBuild with the offending field.
type BuildError struct {
	Field  string
	Reason string
}

func (e *BuildError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrBuild.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrBuild.Error(), e.Field, e.Reason)
}

func (e *BuildError) Unwrap() error { return ErrBuild }

// NewBuildError creates a build error for field.
func NewBuildError(field, format string, args ...any) error {
	return &BuildError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExecutionError wraps a backend failure with the index it was sent to.
// Both ErrExecution and the cause are reachable through errors.Is.
type ExecutionError struct {
	Index string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s on %q: %v", ErrExecution.Error(), e.Index, e.Err)
}

func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.Err} }

// NewExecutionError creates an execution error for index.
func NewExecutionError(index string, err error) error {
	return &ExecutionError{Index: index, Err: err}
}

// RangeError wraps ErrIndexRange with the requested position and page length.
type RangeError struct {
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d (len %d)", ErrIndexRange.Error(), e.Index, e.Len)
}

func (e *RangeError) Unwrap() error { return ErrIndexRange }
