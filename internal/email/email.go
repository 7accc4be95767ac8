// Package email delivers notifications taken off the send-email queue.
package email

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// Queue is the logical name of the queue notifications arrive on
const Queue = "send-email"

// Notification is a single email
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Poster is an abstraction for the email API client
type Poster interface {
	NewRequest(ctx context.Context, path string, body []byte) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
}

// Sender posts notifications to the email API
type Sender struct {
	client Poster
}

// NewSender returns a new Sender
func NewSender(p Poster) *Sender {
	return &Sender{client: p}
}

// Send delivers n, treating any non-2xx response as a failure.
func (s *Sender) Send(ctx context.Context, n Notification) error {

	if n.To == "" {
		return fmt.Errorf("notification has no recipient")
	}

	b, err := json.Marshal(&n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %v", err)
	}

	req, err := s.client.NewRequest(ctx, "", b)
	if err != nil {
		return fmt.Errorf("failed to create email request: %v", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call email api: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api returned %v: %s", resp.StatusCode, out)
	}

	return nil
}

// Handle is the send-email queue handler
func (s *Sender) Handle(ctx context.Context, c router.Context[Notification, config.Env]) error {
	return s.Send(ctx, c.Message.Body)
}
