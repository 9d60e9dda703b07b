package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type AcceptResult struct {
	Offer   domain.Offer
	Order   domain.Order
	Listing domain.Listing

	// CascadeRejected holds the pending offers rejected because the listing sold out.
	CascadeRejected []string
}

// InventoryProcessor turns an accepted offer into an order, deducting stock
// under a row lock on the listing.
type InventoryProcessor struct {
	db     port.DatabaseRepository
	events EventSink
	log    *zap.Logger
}

func NewInventoryProcessor(db port.DatabaseRepository, events EventSink, log *zap.Logger) *InventoryProcessor {
	return &InventoryProcessor{db: db, events: orDiscard(events), log: log}
}

// Accept runs the whole acceptance in one transaction: lock the listing,
// lock and re-check the offer, deduct stock, create the order, mark the
// offer ACCEPTED and, if the listing sold out, reject every other pending
// offer on it. Nothing is persisted when any step fails.
func (p *InventoryProcessor) Accept(ctx context.Context, offerID string) (AcceptResult, error) {
	if err := requireID("offer id", offerID); err != nil {
		return AcceptResult{}, err
	}

	// The listing id is needed up front so the listing row is locked before the offer row.
	current, err := p.db.GetOffer(ctx, offerID)
	if err != nil {
		return AcceptResult{}, err
	}
	if current.Status != domain.OfferStatusPending {
		return AcceptResult{}, domain.ErrAlreadyResolved
	}

	var res AcceptResult
	err = p.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		listing, err := tx.LockListing(ctx, current.ListingID)
		if err != nil {
			return err
		}
		offer, err := tx.LockOffer(ctx, offerID)
		if err != nil {
			return err
		}

		at := now()
		if err := offer.Resolve(domain.OfferStatusAccepted, at); err != nil {
			return err
		}
		if err := listing.DecrementStock(offer.Quantity); err != nil {
			return err
		}
		listing.UpdatedAt = at

		if err := tx.UpdateListingStock(ctx, *listing); err != nil {
			return err
		}

		order := domain.NewOrderFromOffer(newID(), *offer, *listing, at)
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.UpdateOfferStatus(ctx, offer.ID, domain.OfferStatusAccepted, at); err != nil {
			return err
		}

		var rejected []string
		if listing.Stock.IsZero() {
			rejected, err = tx.RejectPendingOffers(ctx, listing.ID, at)
			if err != nil {
				return err
			}
		}

		res = AcceptResult{Offer: *offer, Order: order, Listing: *listing, CascadeRejected: rejected}
		return nil
	})
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			p.log.Warn("offer exceeds remaining stock",
				zap.String("offer_id", offerID),
				zap.String("available", stockErr.Available.String()),
				zap.String("requested", stockErr.Requested.String()),
			)
			return AcceptResult{}, err
		}
		if isClientError(err) {
			return AcceptResult{}, err
		}
		p.log.Error("accept offer failed", zap.String("offer_id", offerID), zap.Error(err))
		return AcceptResult{}, fmt.Errorf("accept offer %s: %w", offerID, err)
	}

	p.log.Info("offer accepted",
		zap.String("offer_id", res.Offer.ID),
		zap.String("order_id", res.Order.ID),
		zap.String("listing_id", res.Listing.ID),
		zap.String("remaining_stock", res.Listing.Stock.String()),
		zap.Int("cascade_rejected", len(res.CascadeRejected)),
	)
	p.events.Enqueue(ctx, acceptEvents(res)...)

	return res, nil
}

func acceptEvents(res AcceptResult) []domain.Event {
	at := res.Order.CreatedAt
	events := []domain.Event{
		newEvent(domain.EventOfferAccepted, res.Offer.ID, at, map[string]any{
			"listing_id": res.Offer.ListingID,
			"buyer_id":   res.Offer.BuyerID,
			"order_id":   res.Order.ID,
		}),
		newEvent(domain.EventOrderCreated, res.Order.ID, at, map[string]any{
			"offer_id":    res.Order.OfferID,
			"listing_id":  res.Order.ListingID,
			"buyer_id":    res.Order.BuyerID,
			"seller_id":   res.Order.SellerID,
			"quantity":    res.Order.Quantity.String(),
			"total_price": res.Order.TotalPrice.String(),
		}),
	}
	for _, id := range res.CascadeRejected {
		events = append(events, newEvent(domain.EventOfferRejected, id, at, map[string]any{
			"listing_id": res.Listing.ID,
			"reason":     "sold_out",
		}))
	}
	if res.Listing.Status == domain.ListingStatusSold {
		events = append(events, newEvent(domain.EventListingSoldOut, res.Listing.ID, at, nil))
	}
	return events
}

// isClientError reports errors that describe the request rather than a fault.
func isClientError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidArgument,
		domain.ErrNotFound,
		domain.ErrListingUnavailable,
		domain.ErrInsufficientStock,
		domain.ErrAlreadyResolved,
		domain.ErrInvalidTransition,
		domain.ErrDuplicateRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
