// Package publisher sends messages to the deployment-qualified queue of a logical queue name.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
)

// Messenger is an abstraction for a SQS client
type Messenger interface {
	GetQueueUrlWithContext(aws.Context, *sqs.GetQueueUrlInput, ...request.Option) (*sqs.GetQueueUrlOutput, error)
	SendMessageWithContext(aws.Context, *sqs.SendMessageInput, ...request.Option) (*sqs.SendMessageOutput, error)
}

// Publisher writes JSON messages to the queues of one environment
type Publisher struct {
	sqs     Messenger
	envType string

	mu   sync.Mutex
	urls map[string]string
}

// NewPublisher returns a new Publisher
func NewPublisher(m Messenger, envType string) *Publisher {
	return &Publisher{sqs: m, envType: envType, urls: make(map[string]string)}
}

// QualifyQueueName appends the environment tag to a logical queue name.
func QualifyQueueName(logical, envType string) string {
	if envType == "" {
		return logical
	}
	return logical + "-" + envType
}

// Publish marshals body and sends it to the queue for the logical name, returning the message id.
func (p *Publisher) Publish(ctx context.Context, logical string, body interface{}) (string, error) {

	msg, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal SQS payload: %v", err)
	}

	url, err := p.queueURL(ctx, QualifyQueueName(logical, p.envType))
	if err != nil {
		return "", err
	}

	out, err := p.sqs.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		MessageBody: aws.String(string(msg)),
		QueueUrl:    aws.String(url),
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish to %v: %v", logical, err)
	}
	return aws.StringValue(out.MessageId), nil
}

func (p *Publisher) queueURL(ctx context.Context, name string) (string, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if url, ok := p.urls[name]; ok {
		return url, nil
	}

	out, err := p.sqs.GetQueueUrlWithContext(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to get queue url for %v: %v", name, err)
	}

	url := aws.StringValue(out.QueueUrl)
	p.urls[name] = url
	return url, nil
}
