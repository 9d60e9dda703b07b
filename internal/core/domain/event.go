package domain

import "time"

type EventType string

const (
	EventListingCreated     EventType = "listing.created"
	EventListingSoldOut     EventType = "listing.sold_out"
	EventOfferCreated       EventType = "offer.created"
	EventOfferAccepted      EventType = "offer.accepted"
	EventOfferRejected      EventType = "offer.rejected"
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is emitted after a committed state change.
type Event struct {
	ID          string         `json:"event_id"`
	Type        EventType      `json:"event_type"`
	AggregateID string         `json:"aggregate_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Payload     map[string]any `json:"payload"`
}
