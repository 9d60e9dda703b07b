package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusAccepted OfferStatus = "ACCEPTED"
	OfferStatusRejected OfferStatus = "REJECTED"
)

type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

type Offer struct {
	ID        string
	ListingID string
	BuyerID   string
	SellerID  string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Message   string
	Status    OfferStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolve moves a pending offer to a terminal status. Resolved offers never change again.
func (o *Offer) Resolve(status OfferStatus, at time.Time) error {
	if o.Status != OfferStatusPending {
		return ErrAlreadyResolved
	}
	if status != OfferStatusAccepted && status != OfferStatusRejected {
		return Invalidf("offer cannot move to %s", status)
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (o Offer) Total() decimal.Decimal {
	return o.UnitPrice.Mul(o.Quantity)
}

// OfferHistoryEntry is a resolved offer as shown to the farmer, with the
// status of the order it produced when it was accepted.
type OfferHistoryEntry struct {
	Offer       Offer
	OrderID     string
	OrderStatus OrderStatus
}
