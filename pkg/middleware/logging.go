package middleware

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// LogMessages decorates a handler to log each message and any failure.
func LogMessages[E router.Environment](l logrus.FieldLogger) router.Decorator[E] {
	return func(next router.HandlerFunc[string, E]) router.HandlerFunc[string, E] {
		return func(ctx context.Context, c router.Context[string, E]) error {
			entry := l.WithFields(logrus.Fields{
				"queue":      c.Queue,
				"message_id": c.Message.ID,
				"attempts":   c.Message.Attempts,
			})
			entry.Debugf("Processing message %s", c.Message.ID)

			err := next(ctx, c)
			if err != nil {
				entry.WithError(err).Error("failed to process message")
			}
			return err
		}
	}
}
