package port

import (
	"context"

	"github.com/agriflow/marketplace/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}
