package form

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned once the form's event loop has stopped.
	ErrClosed = errors.New("form: closed")
	// ErrButtonNotFound is returned when clicking a button the form does not show.
	ErrButtonNotFound = errors.New("form: button not found")
	// ErrRowNotFound is returned for an unknown child row.
	ErrRowNotFound = errors.New("form: row not found")
	// ErrUnknownTable is returned for a child table the doctype does not define.
	ErrUnknownTable = errors.New("form: unknown table")
	// ErrNoMapper is returned when a mapped document is requested without a mapper.
	ErrNoMapper = errors.New("form: mapped document creation not configured")
)

// PanicError wraps a panic raised by an event handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("form: handler panic: %v", e.Value)
}
