package email

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/UKHomeOffice/queuerouter/internal/client"
	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/pkg/router"
	"github.com/tidwall/gjson"
)

func TestHandle(t *testing.T) {

	tt := []struct {
		name   string
		n      Notification
		status int
		err    string
	}{
		{name: "happy", n: Notification{To: "one@example.com", Subject: "Welcome", Body: "Hello"}, status: http.StatusAccepted},
		{name: "no recipient", n: Notification{Subject: "Welcome"}, err: "notification has no recipient"},
		{name: "rejected", n: Notification{To: "bad"}, status: http.StatusBadRequest, err: "email api returned 400: invalid address"},
		{name: "server error", n: Notification{To: "one@example.com"}, status: http.StatusInternalServerError,
			err: "email api returned 500"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			var calls int
			testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++

				if r.URL.Path != "/v1/send" {
					t.Errorf("wrong path: %v", r.URL.Path)
				}

				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("could not read request body: %v", err)
				}
				if to := gjson.GetBytes(body, "to").Str; to != tc.n.To {
					t.Errorf("expected recipient %v, got %v", tc.n.To, to)
				}

				w.WriteHeader(tc.status)
				if tc.status >= 400 && tc.status < 500 {
					w.Write([]byte("invalid address"))
				}
			}))
			defer testSrv.Close()

			u, _ := url.Parse(testSrv.URL + "/v1/send")
			s := NewSender(&client.Client{
				BaseURL:    u,
				HTTPClient: &http.Client{Timeout: 5 * time.Second},
				Token:      "secret",
			})

			c := router.Context[Notification, config.Env]{
				Message: router.Message[Notification]{ID: "m-1", Body: tc.n},
				Env:     config.Env{Type: "dev"},
				Queue:   Queue,
			}

			err := s.Handle(context.Background(), c)
			if err != nil {
				if msg := err.Error(); tc.err == "" || !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				if tc.n.To == "" && calls != 0 {
					t.Errorf("expected no api call, got %d", calls)
				}
				return
			}
			if tc.err != "" {
				t.Fatalf("expected error %q", tc.err)
			}
			if calls != 1 {
				t.Errorf("expected 1 api call, got %d", calls)
			}
		})
	}
}

func TestSendMissingCredentials(t *testing.T) {

	u, _ := url.Parse("https://mail.example.com/v1/send")
	s := NewSender(&client.Client{BaseURL: u, HTTPClient: http.DefaultClient})

	err := s.Send(context.Background(), Notification{To: "one@example.com"})
	if err == nil || !strings.Contains(err.Error(), "failed to create email request: missing credentials") {
		t.Errorf("expected credentials error, got: %v", err)
	}
}
