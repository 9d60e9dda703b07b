package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agriflow/marketplace/internal/core/domain"
)

// decimalLimit mirrors the DECIMAL column a value is stored in.
type decimalLimit struct {
	places    int32
	intDigits int
}

var (
	quantityLimit = decimalLimit{places: 3, intDigits: 17}
	priceLimit    = decimalLimit{places: 2, intDigits: 18}
	totalLimit    = decimalLimit{places: 5, intDigits: 19}
)

// maxScale bounds the exponent of accepted input before any rescaling.
const maxScale = 32

// EventSink receives events after the transaction that produced them committed.
type EventSink interface {
	Enqueue(ctx context.Context, events ...domain.Event)
}

type discardSink struct{}

func (discardSink) Enqueue(context.Context, ...domain.Event) {}

func orDiscard(sink EventSink) EventSink {
	if sink == nil {
		return discardSink{}
	}
	return sink
}

// now matches the microsecond precision of the DATETIME(6) columns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

func newEvent(typ domain.EventType, aggregateID string, at time.Time, payload map[string]any) domain.Event {
	return domain.Event{
		ID:          newID(),
		Type:        typ,
		AggregateID: aggregateID,
		OccurredAt:  at,
		Payload:     payload,
	}
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Invalidf("%s is required", field)
	}
	return nil
}

func requirePositive(field string, value decimal.Decimal, limit decimalLimit) error {
	if !value.IsPositive() {
		return domain.Invalidf("%s must be positive, got %s", field, value)
	}
	// Rounding a value with a huge exponent is unbounded work, so the range is checked first.
	if exp := value.Exponent(); exp < -maxScale || exp > int32(limit.intDigits) || integerDigits(value) > limit.intDigits {
		return domain.Invalidf("%s is out of range, at most %d integer digits", field, limit.intDigits)
	}
	if !value.Equal(value.Round(limit.places)) {
		return domain.Invalidf("%s supports at most %d decimal places, got %s", field, limit.places, value)
	}
	return nil
}

// requireTotal checks that quantity times price fits the order total column.
func requireTotal(quantity, unitPrice decimal.Decimal) error {
	total := quantity.Mul(unitPrice)
	if integerDigits(total) > totalLimit.intDigits {
		return domain.Invalidf("total price %s is out of range, at most %d integer digits", total, totalLimit.intDigits)
	}
	return nil
}

func integerDigits(value decimal.Decimal) int {
	return value.NumDigits() + int(value.Exponent())
}
