package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Client is a HTTP client for a JSON API using bearer token auth
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	Token      string
}

// NewRequest creates a HTTP POST request relative to BaseURL
func (c *Client) NewRequest(ctx context.Context, path string, body []byte) (*http.Request, error) {

	p, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.Token == "" {
		return nil, fmt.Errorf("missing credentials")
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	return req, nil
}

// Do makes a HTTP request
func (c *Client) Do(req *http.Request) (*http.Response, error) {

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, err
}
