package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type CreateOfferInput struct {
	// RequestID is optional. A repeated id is refused with domain.ErrDuplicateRequest.
	RequestID string
	ListingID string
	BuyerID   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Message   string
}

type OfferService struct {
	db        port.DatabaseRepository
	cache     port.CacheRepository
	inventory *InventoryProcessor
	events    EventSink
	log       *zap.Logger
}

func NewOfferService(db port.DatabaseRepository, cache port.CacheRepository, inventory *InventoryProcessor, events EventSink, log *zap.Logger) *OfferService {
	return &OfferService{db: db, cache: cache, inventory: inventory, events: orDiscard(events), log: log}
}

func (s *OfferService) CreateOffer(ctx context.Context, in CreateOfferInput) (offer domain.Offer, err error) {
	if err := requireID("listing id", in.ListingID); err != nil {
		return domain.Offer{}, err
	}
	if err := requireID("buyer id", in.BuyerID); err != nil {
		return domain.Offer{}, err
	}
	if err := requirePositive("quantity", in.Quantity, quantityLimit); err != nil {
		return domain.Offer{}, err
	}
	if err := requirePositive("unit price", in.UnitPrice, priceLimit); err != nil {
		return domain.Offer{}, err
	}
	if err := requireTotal(in.Quantity, in.UnitPrice); err != nil {
		return domain.Offer{}, err
	}

	if in.RequestID != "" {
		release, claimErr := claimRequest(ctx, s.cache, "offer:"+in.RequestID)
		if claimErr != nil {
			return domain.Offer{}, claimErr
		}
		defer func() {
			if err != nil {
				release(s.log)
			}
		}()
	}

	at := now()
	err = s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		// Locked so a concurrent sell-out cannot leave this offer pending on a SOLD listing.
		listing, err := tx.LockListing(ctx, in.ListingID)
		if err != nil {
			return err
		}
		if err := checkPurchasable(*listing, in.BuyerID); err != nil {
			return err
		}

		offer = domain.Offer{
			ID:        newID(),
			ListingID: listing.ID,
			BuyerID:   in.BuyerID,
			SellerID:  listing.OwnerID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Message:   in.Message,
			Status:    domain.OfferStatusPending,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if offer.Message == "" {
			offer.Message = fmt.Sprintf("Offer: %s for %s %s of %s.", offer.Total().StringFixed(priceLimit.places), offer.Quantity, listing.QuantityUnit, listing.CropName)
		}
		return tx.InsertOffer(ctx, offer)
	})
	if err != nil {
		if !isClientError(err) {
			s.log.Error("create offer failed", zap.String("listing_id", in.ListingID), zap.Error(err))
			return domain.Offer{}, fmt.Errorf("create offer: %w", err)
		}
		return domain.Offer{}, err
	}

	s.log.Info("offer created",
		zap.String("offer_id", offer.ID),
		zap.String("listing_id", offer.ListingID),
		zap.String("buyer_id", offer.BuyerID),
		zap.String("quantity", offer.Quantity.String()),
	)
	s.events.Enqueue(ctx, offerCreatedEvent(offer))

	return offer, nil
}

// ListPendingOffers returns the listing's PENDING offers in no particular order.
func (s *OfferService) ListPendingOffers(ctx context.Context, listingID string) ([]domain.Offer, error) {
	if err := requireID("listing id", listingID); err != nil {
		return nil, err
	}
	if _, err := s.db.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.db.ListOffersByListing(ctx, listingID, domain.OfferStatusPending)
}

// ListPendingForSeller is the farmer's inbox across all of their listings.
func (s *OfferService) ListPendingForSeller(ctx context.Context, sellerID string) ([]domain.Offer, error) {
	if err := requireID("seller id", sellerID); err != nil {
		return nil, err
	}
	return s.db.ListOffersBySeller(ctx, sellerID, domain.OfferStatusPending)
}

// History lists the seller's resolved offers. Accepted entries carry the
// current status of the order created from them.
func (s *OfferService) History(ctx context.Context, sellerID string) ([]domain.OfferHistoryEntry, error) {
	if err := requireID("seller id", sellerID); err != nil {
		return nil, err
	}

	offers, err := s.db.ListOffersBySeller(ctx, sellerID, domain.OfferStatusAccepted, domain.OfferStatusRejected)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.OfferHistoryEntry, 0, len(offers))
	for _, offer := range offers {
		entry := domain.OfferHistoryEntry{Offer: offer}
		if offer.Status == domain.OfferStatusAccepted {
			order, err := s.db.GetOrderByOffer(ctx, offer.ID)
			switch {
			case err == nil:
				entry.OrderID = order.ID
				entry.OrderStatus = order.Status
			case errors.Is(err, domain.ErrNotFound):
			default:
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Respond resolves a pending offer. ACCEPT goes through the inventory
// processor and leaves the offer PENDING when it fails.
func (s *OfferService) Respond(ctx context.Context, offerID string, decision domain.Decision) (domain.Offer, error) {
	if err := requireID("offer id", offerID); err != nil {
		return domain.Offer{}, err
	}
	if !decision.Valid() {
		return domain.Offer{}, domain.Invalidf("decision must be ACCEPT or REJECT, got %q", decision)
	}

	if decision == domain.DecisionAccept {
		res, err := s.inventory.Accept(ctx, offerID)
		if err != nil {
			return domain.Offer{}, err
		}
		return res.Offer, nil
	}

	var offer *domain.Offer
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		var err error
		offer, err = tx.LockOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if err := offer.Resolve(domain.OfferStatusRejected, now()); err != nil {
			return err
		}
		return tx.UpdateOfferStatus(ctx, offer.ID, offer.Status, offer.UpdatedAt)
	})
	if err != nil {
		if !isClientError(err) {
			s.log.Error("reject offer failed", zap.String("offer_id", offerID), zap.Error(err))
			return domain.Offer{}, fmt.Errorf("reject offer %s: %w", offerID, err)
		}
		return domain.Offer{}, err
	}

	s.log.Info("offer rejected", zap.String("offer_id", offer.ID), zap.String("listing_id", offer.ListingID))
	s.events.Enqueue(ctx, newEvent(domain.EventOfferRejected, offer.ID, offer.UpdatedAt, map[string]any{
		"listing_id": offer.ListingID,
		"reason":     "seller",
	}))

	return *offer, nil
}

func offerCreatedEvent(offer domain.Offer) domain.Event {
	return newEvent(domain.EventOfferCreated, offer.ID, offer.CreatedAt, map[string]any{
		"listing_id": offer.ListingID,
		"buyer_id":   offer.BuyerID,
		"seller_id":  offer.SellerID,
		"quantity":   offer.Quantity.String(),
		"unit_price": offer.UnitPrice.String(),
	})
}

// claimRequest reserves an idempotency key. The returned release frees it
// again so a failed request can be retried with the same id.
func claimRequest(ctx context.Context, cache port.CacheRepository, key string) (func(*zap.Logger), error) {
	ok, err := cache.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateRequest, key)
	}
	return func(log *zap.Logger) {
		if err := cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); err != nil {
			log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
