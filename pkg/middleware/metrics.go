package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// Metrics holds the per-queue message collectors
type Metrics struct {
	messages *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuerouter",
			Name:      "messages_total",
			Help:      "Messages handled, by logical queue and result.",
		}, []string{"queue", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "queuerouter",
			Name:      "message_duration_seconds",
			Help:      "Time spent in the handler for one message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"queue"}),
	}
	reg.MustRegister(m.messages, m.duration)
	return m
}

// TrackMetrics decorates a handler to count successes and failures and time each call.
func TrackMetrics[E router.Environment](m *Metrics) router.Decorator[E] {
	return func(next router.HandlerFunc[string, E]) router.HandlerFunc[string, E] {
		return func(ctx context.Context, c router.Context[string, E]) error {
			start := time.Now()
			err := next(ctx, c)
			m.duration.WithLabelValues(c.Queue).Observe(time.Since(start).Seconds())

			result := "success"
			if err != nil {
				result = "failure"
			}
			m.messages.WithLabelValues(c.Queue, result).Inc()
			return err
		}
	}
}

// LogSummary logs the current value of every message counter in g, one entry per queue and result.
func LogSummary(g prometheus.Gatherer, l logrus.FieldLogger) {

	mfs, err := g.Gather()
	if err != nil {
		l.WithError(err).Warn("failed to gather metrics")
		return
	}
	for _, mf := range mfs {
		if mf.GetName() != "queuerouter_messages_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			fields := logrus.Fields{"count": m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				fields[lp.GetName()] = lp.GetValue()
			}
			l.WithFields(fields).Info("Messages handled")
		}
	}
}
