package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID           string
	OfferID      string
	ListingID    string
	BuyerID      string
	SellerID     string
	Quantity     decimal.Decimal
	QuantityUnit string
	TotalPrice   decimal.Decimal
	Status       OrderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrderFromOffer builds the confirmed order for an offer accepted against listing.
func NewOrderFromOffer(id string, offer Offer, listing Listing, at time.Time) Order {
	return Order{
		ID:           id,
		OfferID:      offer.ID,
		ListingID:    listing.ID,
		BuyerID:      offer.BuyerID,
		SellerID:     listing.OwnerID,
		Quantity:     offer.Quantity,
		QuantityUnit: listing.QuantityUnit,
		TotalPrice:   offer.Total(),
		Status:       OrderStatusConfirmed,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// Advance applies a buyer-driven status change. Only CONFIRMED orders move.
func (o *Order) Advance(status OrderStatus, at time.Time) error {
	if status != OrderStatusDelivered && status != OrderStatusCancelled {
		return Invalidf("order cannot move to %s", status)
	}
	if o.Status != OrderStatusConfirmed {
		return ErrInvalidTransition
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

// Earnings sums what a seller has sold, ignoring cancelled orders.
type Earnings struct {
	SellerID     string
	Total        decimal.Decimal
	CurrentMonth decimal.Decimal
	OrderCount   int
}

// SummarizeEarnings adds up the seller's non-cancelled orders. Orders created
// at or after monthStart also count towards CurrentMonth.
func SummarizeEarnings(sellerID string, orders []Order, monthStart time.Time) Earnings {
	e := Earnings{SellerID: sellerID, Total: decimal.Zero, CurrentMonth: decimal.Zero}
	for _, o := range orders {
		if o.SellerID != sellerID || o.Status == OrderStatusCancelled {
			continue
		}
		e.Total = e.Total.Add(o.TotalPrice)
		e.OrderCount++
		if !o.CreatedAt.Before(monthStart) {
			e.CurrentMonth = e.CurrentMonth.Add(o.TotalPrice)
		}
	}
	return e
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
