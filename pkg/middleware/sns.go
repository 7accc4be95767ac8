// Package middleware provides router.Decorator implementations shared by queue handlers.
package middleware

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// UnwrapSNS decorates a handler to receive the inner message of bodies delivered via an SNS subscription.
// Bodies that are not SNS notifications are passed through unchanged.
func UnwrapSNS[E router.Environment]() router.Decorator[E] {
	return func(next router.HandlerFunc[string, E]) router.HandlerFunc[string, E] {
		return func(ctx context.Context, c router.Context[string, E]) error {
			if msg, ok := snsMessage(c.Message.Body); ok {
				c.Message.Body = msg
			}
			return next(ctx, c)
		}
	}
}

func snsMessage(body string) (string, bool) {

	if !gjson.Valid(body) {
		return "", false
	}

	fields := gjson.GetMany(body, "Type", "TopicArn", "MessageId", "Message")
	if fields[0].Str != "Notification" || fields[1].Str == "" || fields[2].Str == "" {
		return "", false
	}
	if !fields[3].Exists() {
		return "", false
	}
	return fields[3].String(), true
}
