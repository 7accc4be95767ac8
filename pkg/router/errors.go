package router

import (
	"fmt"
	"strings"
)

// NoHandlerError is returned when a batch resolves to a queue nothing is registered for.
type NoHandlerError struct {
	Queue string
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler registered for queue: %s", e.Queue)
}

// MessageError is the failure of a single message, tagged with its 1-based position in the batch.
type MessageError struct {
	Position  int
	MessageID string
	Err       error
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("Message %d: %s", e.Position, e.Err)
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// BatchError aggregates every message failure of one dispatch, in position order.
type BatchError struct {
	Failures []*MessageError
}

func (e *BatchError) Error() string {
	lines := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		lines = append(lines, f.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
