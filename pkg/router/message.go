package router

import (
	"context"
	"time"
)

// Environment is the per-invocation configuration passed through to every handler.
type Environment interface {
	// EnvType returns the deployment stage tag, e.g. "prod" or "dev".
	EnvType() string
}

// Acknowledger is implemented by the platform adapter that delivered a message.
type Acknowledger interface {
	Ack(id string)
	Retry(id string)
}

// Message is a single queue message with a decoded body
type Message[T any] struct {
	ID        string
	Timestamp time.Time
	Attempts  int
	Body      T

	acker Acknowledger
}

// NewMessage returns a raw message bound to an acknowledger, which may be nil.
func NewMessage(id string, ts time.Time, attempts int, body string, a Acknowledger) Message[string] {
	return Message[string]{ID: id, Timestamp: ts, Attempts: attempts, Body: body, acker: a}
}

// Ack marks the message as handled with the delivering platform.
func (m Message[T]) Ack() {
	if m.acker != nil {
		m.acker.Ack(m.ID)
	}
}

// Retry asks the delivering platform to redeliver the message.
func (m Message[T]) Retry() {
	if m.acker != nil {
		m.acker.Retry(m.ID)
	}
}

// withBody copies the metadata of m onto a message carrying b.
func withBody[T any](m Message[string], b T) Message[T] {
	return Message[T]{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Attempts:  m.Attempts,
		Body:      b,
		acker:     m.acker,
	}
}

// Batch is one delivery from a deployment-qualified queue
type Batch struct {
	Queue    string
	Messages []Message[string]
}

// Context is what a handler receives for each message.
type Context[T any, E Environment] struct {
	Message Message[T]
	Env     E
	// Queue is the logical queue name the handler was registered against.
	Queue string
}

// HandlerFunc processes one message. A returned error marks that message as failed.
type HandlerFunc[T any, E Environment] func(ctx context.Context, c Context[T, E]) error
