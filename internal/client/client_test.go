package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestClient(t *testing.T) {

	tt := []struct {
		name    string
		path    string
		token   string
		payload string
		err     string
	}{
		{name: "happy", path: "/send", token: "secret", payload: `{"foo":"bar"}`},
		{name: "unhappy", path: "/send", err: "missing credentials"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

				ct := r.Header.Get("Content-Type")
				if ct != "application/json" {
					t.Errorf("wrong content type: %v", ct)
				}

				sa := r.Header.Get("Authorization")
				if sa != "Bearer secret" {
					t.Errorf("wrong auth header: %v", sa)
				}

				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("could not read request body: %v", err)
				}

				if string(body) != tc.payload {
					t.Errorf("expected %v, got %v", tc.payload, string(body))
				}
			}))
			defer testSrv.Close()

			u, _ := url.Parse(testSrv.URL)
			c := &Client{
				BaseURL:    u,
				HTTPClient: &http.Client{Timeout: 5 * time.Second},
				Token:      tc.token,
			}

			req, err := c.NewRequest(context.Background(), tc.path, []byte(tc.payload))
			if err != nil {
				if msg := err.Error(); tc.err == "" || !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}

			if req.URL.String() != (u.String() + tc.path) {
				t.Errorf("wrong target url: %v", req.URL.String())
			}

			resp, err := c.Do(req)
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			defer resp.Body.Close()
		})
	}
}
