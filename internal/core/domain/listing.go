package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusActive ListingStatus = "ACTIVE"
	ListingStatusSold   ListingStatus = "SOLD"
)

type Listing struct {
	ID           string
	OwnerID      string
	CropName     string
	Stock        decimal.Decimal
	QuantityUnit string
	UnitPrice    decimal.Decimal
	ImageURL     string
	Location     string
	Status       ListingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DecrementStock removes amount from the listing and marks it SOLD when
// nothing is left. The listing is unchanged when the deduction is refused.
func (l *Listing) DecrementStock(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return Invalidf("deduction must be positive, got %s", amount)
	}

	remaining := l.Stock.Sub(amount)
	if remaining.IsNegative() {
		return &InsufficientStockError{Available: l.Stock, Requested: amount}
	}

	l.Stock = remaining
	if remaining.IsZero() {
		l.Status = ListingStatusSold
	} else {
		l.Status = ListingStatusActive
	}
	return nil
}

func (l Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}
