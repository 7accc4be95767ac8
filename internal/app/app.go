// Package app wires the queue handlers of the worker into a router.
package app

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/internal/client"
	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/internal/email"
	"github.com/UKHomeOffice/queuerouter/internal/users"
	"github.com/UKHomeOffice/queuerouter/pkg/middleware"
	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// Deps are the clients the handlers need
type Deps struct {
	DB        users.DBPutter
	Publisher users.Publisher
	Email     email.Poster
	Metrics   *middleware.Metrics
	Log       logrus.FieldLogger
}

// New returns a router with every queue handler registered
func New(cfg config.Env, d Deps) *router.Router[config.Env] {

	if d.Log == nil {
		d.Log = cfg.Logger()
	}

	mw := []router.Decorator[config.Env]{middleware.LogMessages[config.Env](d.Log)}
	if d.Metrics != nil {
		mw = append(mw, middleware.TrackMetrics[config.Env](d.Metrics))
	}
	mw = append(mw, middleware.UnwrapSNS[config.Env]())

	r := router.New[config.Env](
		router.WithLogger[config.Env](d.Log),
		router.WithMiddleware[config.Env](mw...),
	)

	router.On[users.UserCreated, config.Env](r, users.Queue, users.NewStore(d.DB, d.Publisher, d.Log).Handle)
	router.On[email.Notification, config.Env](r, email.Queue, email.NewSender(d.Email).Handle)

	return r
}

// EmailClient returns the email API client for cfg
func EmailClient(cfg config.Env) (*client.Client, error) {

	u, err := url.Parse(cfg.EmailAPIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email api url: %v", err)
	}

	return &client.Client{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Token:      cfg.EmailAPIKey,
	}, nil
}
