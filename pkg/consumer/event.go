package consumer

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws/arn"

	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// ErrMixedQueues is returned for an event whose records come from different queues.
var ErrMixedQueues = errors.New("event contains records from more than one queue")

// QueueName returns the queue name of an SQS queue ARN
func QueueName(queueARN string) (string, error) {

	a, err := arn.Parse(queueARN)
	if err != nil {
		return "", fmt.Errorf("failed to parse event source: %v", err)
	}
	if a.Service != "sqs" || a.Resource == "" {
		return "", fmt.Errorf("event source is not an SQS queue: %v", queueARN)
	}
	return a.Resource, nil
}

// Tracker records the Ack and Retry requests handlers make during one batch
type Tracker struct {
	retry map[string]bool
}

func newTracker() *Tracker {
	return &Tracker{retry: make(map[string]bool)}
}

// Ack withdraws an earlier retry request for the message.
func (t *Tracker) Ack(id string) {
	delete(t.retry, id)
}

// Retry asks for the message to be redelivered.
func (t *Tracker) Retry(id string) {
	t.retry[id] = true
}

// Retried reports whether a retry is outstanding for the message.
func (t *Tracker) Retried(id string) bool {
	return t.retry[id]
}

// BatchFromEvent converts a Lambda SQS event into a router batch.
// Every message is bound to the returned Tracker.
func BatchFromEvent(event *events.SQSEvent) (router.Batch, *Tracker, error) {

	t := newTracker()
	if len(event.Records) == 0 {
		return router.Batch{}, t, nil
	}

	source := event.Records[0].EventSourceARN
	name, err := QueueName(source)
	if err != nil {
		return router.Batch{}, nil, err
	}

	b := router.Batch{
		Queue:    name,
		Messages: make([]router.Message[string], 0, len(event.Records)),
	}
	for _, rec := range event.Records {
		if rec.EventSourceARN != source {
			return router.Batch{}, nil, fmt.Errorf("%w: %v and %v", ErrMixedQueues, source, rec.EventSourceARN)
		}
		b.Messages = append(b.Messages, router.NewMessage(rec.MessageId, sentAt(rec), receiveCount(rec), rec.Body, t))
	}
	return b, t, nil
}

// sentAt reads the SentTimestamp attribute, in epoch milliseconds.
func sentAt(rec events.SQSMessage) time.Time {
	ms, err := strconv.ParseInt(rec.Attributes["SentTimestamp"], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func receiveCount(rec events.SQSMessage) int {
	n, err := strconv.Atoi(rec.Attributes["ApproximateReceiveCount"])
	if err != nil {
		return 0
	}
	return n
}
