package router

import (
	"context"
	"fmt"
	"strings"
)

// Report is the per-message outcome of one dispatch.
type Report struct {
	// Queue is the resolved logical queue name.
	Queue string
	// Invoked is the number of handler invocations made.
	Invoked  int
	Failures []*MessageError
}

// ResolveQueueName removes a trailing "-<envType>" from a deployment-qualified queue name.
// Names without that suffix, and any name when envType is empty, are returned unchanged.
func ResolveQueueName(queue, envType string) string {
	if envType == "" {
		return queue
	}
	return strings.TrimSuffix(queue, "-"+envType)
}

// Dispatch runs the handler registered for the batch's queue once per message, in order.
//
// It returns a *NoHandlerError without invoking anything when no handler matches.
// Otherwise every message is attempted, even after failures, and a *BatchError
// listing each failed position is returned once the batch is finished.
func (r *Router[E]) Dispatch(ctx context.Context, b Batch, env E) error {
	_, err := r.DispatchReport(ctx, b, env)
	return err
}

// DispatchReport is Dispatch, also returning which messages failed.
func (r *Router[E]) DispatchReport(ctx context.Context, b Batch, env E) (Report, error) {

	name := ResolveQueueName(b.Queue, env.EnvType())
	rep := Report{Queue: name}

	h, ok := r.Lookup(name)
	if !ok {
		return rep, &NoHandlerError{Queue: name}
	}
	h = Chain(recoverPanics(h), r.middleware...)

	for i, m := range b.Messages {
		err := invoke(ctx, h, Context[string, E]{Message: m, Env: env, Queue: name})
		rep.Invoked++
		if err != nil {
			rep.Failures = append(rep.Failures, &MessageError{
				Position:  i + 1,
				MessageID: m.ID,
				Err:       err,
			})
		}
	}

	if len(rep.Failures) > 0 {
		return rep, &BatchError{Failures: rep.Failures}
	}
	return rep, nil
}

// recoverPanics turns a panic in h into an error, so middleware sees it as an ordinary failure.
func recoverPanics[E Environment](h HandlerFunc[string, E]) HandlerFunc[string, E] {
	return func(ctx context.Context, c Context[string, E]) error {
		return invoke(ctx, h, c)
	}
}

// invoke calls h, turning a panic into that message's error.
func invoke[E Environment](ctx context.Context, h HandlerFunc[string, E], c Context[string, E]) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h(ctx, c)
}
