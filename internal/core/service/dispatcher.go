package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const publishTimeout = 5 * time.Second

// Dispatcher hands committed domain events to a pool of workers that push
// them to the configured publisher.
type Dispatcher struct {
	publisher port.EventPublisher
	queue     chan domain.Event
	log       *zap.Logger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(publisher port.EventPublisher, queueSize int, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan domain.Event, queueSize),
		log:       log,
	}
}

func (d *Dispatcher) Start(workerCount int) {
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	d.log.Info("event workers started", zap.Int("workers", workerCount))
}

// Enqueue blocks while the queue is full. Events are dropped, with a
// warning, once ctx is done or the dispatcher is closed.
func (d *Dispatcher) Enqueue(ctx context.Context, events ...domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, event := range events {
		if d.closed {
			d.log.Warn("dispatcher closed, dropping event",
				zap.String("event_type", string(event.Type)),
				zap.String("aggregate_id", event.AggregateID),
			)
			continue
		}

		select {
		case d.queue <- event:
		case <-ctx.Done():
			d.log.Warn("context done, dropping event",
				zap.String("event_type", string(event.Type)),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(ctx.Err()),
			)
		}
	}
}

// Close stops accepting events, drains the queue and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("event workers stopped")
}

func (d *Dispatcher) workerLoop(id int) {
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := d.publisher.Publish(ctx, event); err != nil {
			d.log.Error("failed to publish event",
				zap.Int("worker", id),
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		} else {
			d.log.Debug("published event",
				zap.Int("worker", id),
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
			)
		}

		cancel()
	}
}
