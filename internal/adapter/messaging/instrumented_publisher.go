package messaging

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

// InstrumentedPublisher counts publishes per event type and outcome.
type InstrumentedPublisher struct {
	next     port.EventPublisher
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ port.EventPublisher = (*InstrumentedPublisher)(nil)

func NewInstrumentedPublisher(next port.EventPublisher, broker string, reg prometheus.Registerer) *InstrumentedPublisher {
	p := &InstrumentedPublisher{
		next: next,
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "marketplace_events_published_total",
			Help:        "Domain events handed to the broker, by type and result.",
			ConstLabels: prometheus.Labels{"broker": broker},
		}, []string{"event_type", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "marketplace_event_publish_seconds",
			Help:        "Time spent publishing one domain event.",
			ConstLabels: prometheus.Labels{"broker": broker},
			Buckets:     prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	reg.MustRegister(p.total, p.duration)
	return p
}

func (p *InstrumentedPublisher) Publish(ctx context.Context, event domain.Event) error {
	start := time.Now()
	err := p.next.Publish(ctx, event)
	p.duration.WithLabelValues(string(event.Type)).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	p.total.WithLabelValues(string(event.Type), result).Inc()
	return err
}

func (p *InstrumentedPublisher) Close() error {
	return p.next.Close()
}
