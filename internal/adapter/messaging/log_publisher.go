package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

// LogPublisher writes events to the service log. Used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

var _ port.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.log.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("aggregate_id", event.AggregateID),
		zap.Time("occurred_at", event.OccurredAt),
		zap.Any("payload", event.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
