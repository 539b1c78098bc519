package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// LogNotifier writes each event as a structured log line.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, ev Event) error {
	n.Logger.Info().
		Str("topic", ev.Topic).
		Time("occurred_at", ev.OccurredAt).
		RawJSON("payload", ev.Payload).
		Msg("domain_event")
	return nil
}

// MetricsNotifier counts events per topic.
type MetricsNotifier struct {
	Counter *prometheus.CounterVec
}

// NewMetricsNotifier registers the event counter on the given registerer.
func NewMetricsNotifier(namespace string, reg prometheus.Registerer) MetricsNotifier {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_events_total",
		Help:      "Count of domain events emitted, by topic.",
	}, []string{"topic"})
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				counter = existing
			}
		} else {
			panic(err)
		}
	}
	return MetricsNotifier{Counter: counter}
}

// Notify implements Notifier.
func (n MetricsNotifier) Notify(_ context.Context, ev Event) error {
	if n.Counter != nil {
		n.Counter.WithLabelValues(ev.Topic).Inc()
	}
	return nil
}
