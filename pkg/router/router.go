// Package router maps logical queue names to handlers and dispatches message batches to them.
//
// Queue names delivered by the platform carry the deployment stage as a suffix,
// e.g. "user-created-prod". Handlers are registered against the logical name
// ("user-created") and the suffix is removed using the tag of the Environment
// passed to Dispatch.
//
// Handlers must all be registered before the first Dispatch. The registry is not
// guarded by a lock; concurrent dispatches only read it.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Router is a handler registry for one application instance
type Router[E Environment] struct {
	handlers   map[string]HandlerFunc[string, E]
	middleware []Decorator[E]
	log        logrus.FieldLogger
}

// Option configures a Router
type Option[E Environment] func(*Router[E])

// WithLogger sets the logger used for registration warnings. Defaults to the logrus standard logger.
func WithLogger[E Environment](l logrus.FieldLogger) Option[E] {
	return func(r *Router[E]) { r.log = l }
}

// WithMiddleware adds decorators applied to every handler at dispatch time, outermost first.
func WithMiddleware[E Environment](ds ...Decorator[E]) Option[E] {
	return func(r *Router[E]) { r.middleware = append(r.middleware, ds...) }
}

// New returns a new Router
func New[E Environment](opts ...Option[E]) *Router[E] {
	r := &Router[E]{
		handlers: make(map[string]HandlerFunc[string, E]),
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handle registers a handler for the raw message body of a logical queue.
// Registering the same name twice replaces the earlier handler and logs a warning.
func (r *Router[E]) Handle(name string, h HandlerFunc[string, E]) {
	if _, ok := r.handlers[name]; ok {
		r.log.Warnf("Handler for queue %q is being overwritten", name)
	}
	r.handlers[name] = h
}

// On registers a handler whose message body is JSON decoded into T before it is called.
// A body that does not decode fails that message only.
func On[T any, E Environment](r *Router[E], name string, h HandlerFunc[T, E]) {
	r.Handle(name, decodeJSON(h))
}

func decodeJSON[T any, E Environment](h HandlerFunc[T, E]) HandlerFunc[string, E] {
	return func(ctx context.Context, c Context[string, E]) error {
		var body T
		if err := json.Unmarshal([]byte(c.Message.Body), &body); err != nil {
			return fmt.Errorf("failed to decode message body: %v", err)
		}
		return h(ctx, Context[T, E]{
			Message: withBody(c.Message, body),
			Env:     c.Env,
			Queue:   c.Queue,
		})
	}
}

// Lookup returns the handler registered for a logical queue name.
func (r *Router[E]) Lookup(name string) (HandlerFunc[string, E], bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Queues returns the registered logical queue names in sorted order.
func (r *Router[E]) Queues() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
