// Package consumer receives SQS events in AWS Lambda and hands them to a router.
package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// Consumer dispatches each SQS event to a router with a fixed environment
type Consumer[E router.Environment] struct {
	r   *router.Router[E]
	env E
	log logrus.FieldLogger
}

// Option configures a Consumer
type Option[E router.Environment] func(*Consumer[E])

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger[E router.Environment](l logrus.FieldLogger) Option[E] {
	return func(c *Consumer[E]) { c.log = l }
}

// New returns a new Consumer
func New[E router.Environment](r *router.Router[E], env E, opts ...Option[E]) *Consumer[E] {
	c := &Consumer[E]{r: r, env: env, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Handle dispatches the event as one batch. Any failed message fails the whole batch,
// so the event source makes every message of it visible again.
func (c *Consumer[E]) Handle(ctx context.Context, event events.SQSEvent) error {

	if len(event.Records) == 0 {
		return nil
	}

	b, _, err := BatchFromEvent(&event)
	if err != nil {
		return fmt.Errorf("failed to read SQS event: %w", err)
	}

	log := c.log.WithField("queue", b.Queue)
	log.Infof("Processing %d messages", len(b.Messages))

	err = c.r.Dispatch(ctx, b, c.env)
	if err != nil {
		log.WithError(err).Error("failed to process batch")
		return err
	}
	return nil
}

// HandleWithResponse dispatches the event and reports failed messages individually.
// It requires ReportBatchItemFailures on the event source mapping.
//
// Messages whose handler failed, or that asked for Retry, are returned as batch item
// failures. A batch that cannot be dispatched at all is still returned as an error.
func (c *Consumer[E]) HandleWithResponse(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {

	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	if len(event.Records) == 0 {
		return resp, nil
	}

	b, t, err := BatchFromEvent(&event)
	if err != nil {
		return resp, fmt.Errorf("failed to read SQS event: %w", err)
	}

	log := c.log.WithField("queue", b.Queue)
	log.Infof("Processing %d messages", len(b.Messages))

	rep, err := c.r.DispatchReport(ctx, b, c.env)
	var nh *router.NoHandlerError
	if errors.As(err, &nh) {
		log.WithError(err).Error("failed to process batch")
		return resp, err
	}

	failed := make(map[string]bool, len(rep.Failures))
	for _, f := range rep.Failures {
		failed[f.MessageID] = true
	}
	for _, m := range b.Messages {
		if failed[m.ID] || t.Retried(m.ID) {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: m.ID})
		}
	}

	if err != nil {
		log.WithError(err).Warnf("%d of %d messages failed", len(rep.Failures), len(b.Messages))
	}
	return resp, nil
}
