package models

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks at the presentation boundary.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("task not found")
	ErrInvalidData = errors.New("invalid data")
	ErrIO          = errors.New("i/o failure")
)

// ValidationError reports bad user input such as an empty title or an
// unparsable due date.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError is returned when an operation references an id that is not
// in the store, typically a stale selection.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidDataError reports loaded data that does not have the shape of a
// task list. Line is 1-based and zero when the position is unknown.
type InvalidDataError struct {
	Path   string
	Line   int
	Reason string
}

func (e *InvalidDataError) Error() string {
	msg := "invalid data"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	return msg + ": " + e.Reason
}

func (e *InvalidDataError) Is(target error) bool {
	return target == ErrInvalidData
}

// IOError wraps a file system failure during save, load or export.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
