package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const defaultPaymentMethod = "cash"

type AddToCartInput struct {
	BuyerID   string
	ListingID string
	Quantity  decimal.Decimal
}

type CheckoutInput struct {
	RequestID     string
	BuyerID       string
	ItemIDs       []string // empty means the whole cart
	PaymentMethod string
}

type CartService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	events EventSink
	log    *zap.Logger
}

func NewCartService(db port.DatabaseRepository, cache port.CacheRepository, events EventSink, log *zap.Logger) *CartService {
	return &CartService{db: db, cache: cache, events: orDiscard(events), log: log}
}

// Add puts a listing in the buyer's cart at its current price, or grows the
// quantity of the line already there.
func (s *CartService) Add(ctx context.Context, in AddToCartInput) (domain.CartItem, error) {
	if err := requireID("buyer id", in.BuyerID); err != nil {
		return domain.CartItem{}, err
	}
	if err := requireID("listing id", in.ListingID); err != nil {
		return domain.CartItem{}, err
	}
	if err := requirePositive("quantity", in.Quantity, quantityLimit); err != nil {
		return domain.CartItem{}, err
	}

	var item *domain.CartItem
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		listing, err := tx.GetListing(ctx, in.ListingID)
		if err != nil {
			return err
		}
		if err := checkPurchasable(*listing, in.BuyerID); err != nil {
			return err
		}

		at := now()
		item, err = tx.UpsertCartItem(ctx, domain.CartItem{
			ID:        newID(),
			BuyerID:   in.BuyerID,
			ListingID: listing.ID,
			Quantity:  in.Quantity,
			UnitPrice: listing.UnitPrice,
			CreatedAt: at,
			UpdatedAt: at,
		})
		return err
	})
	if err != nil {
		return domain.CartItem{}, s.wrap("add to cart", err)
	}
	return *item, nil
}

func (s *CartService) List(ctx context.Context, buyerID string) ([]domain.CartItem, error) {
	if err := requireID("buyer id", buyerID); err != nil {
		return nil, err
	}
	return s.db.ListCartItems(ctx, buyerID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, itemID string, quantity decimal.Decimal) (domain.CartItem, error) {
	if err := requireID("cart item id", itemID); err != nil {
		return domain.CartItem{}, err
	}
	if err := requirePositive("quantity", quantity, quantityLimit); err != nil {
		return domain.CartItem{}, err
	}

	var item *domain.CartItem
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		var err error
		item, err = tx.LockCartItem(ctx, itemID)
		if err != nil {
			return err
		}
		item.Quantity = quantity
		item.UpdatedAt = now()
		return tx.UpdateCartItemQuantity(ctx, item.ID, item.Quantity, item.UpdatedAt)
	})
	if err != nil {
		return domain.CartItem{}, s.wrap("update cart item", err)
	}
	return *item, nil
}

func (s *CartService) Remove(ctx context.Context, itemID string) error {
	if err := requireID("cart item id", itemID); err != nil {
		return err
	}
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteCartItem(ctx, itemID)
	})
	if err != nil {
		return s.wrap("remove cart item", err)
	}
	return nil
}

// Checkout turns cart lines into PENDING offers at the price stored in the
// cart. Either every line becomes an offer or none does.
func (s *CartService) Checkout(ctx context.Context, in CheckoutInput) (offers []domain.Offer, err error) {
	if err := requireID("buyer id", in.BuyerID); err != nil {
		return nil, err
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = defaultPaymentMethod
	}

	if in.RequestID != "" {
		release, claimErr := claimRequest(ctx, s.cache, "checkout:"+in.RequestID)
		if claimErr != nil {
			return nil, claimErr
		}
		defer func() {
			if err != nil {
				release(s.log)
			}
		}()
	}

	itemIDs := in.ItemIDs
	if len(itemIDs) == 0 {
		items, err := s.db.ListCartItems(ctx, in.BuyerID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			itemIDs = append(itemIDs, item.ID)
		}
	}
	if len(itemIDs) == 0 {
		return nil, domain.Invalidf("cart of buyer %s is empty", in.BuyerID)
	}

	err = s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		offers = offers[:0]

		items := make([]domain.CartItem, 0, len(itemIDs))
		seen := make(map[string]bool, len(itemIDs))
		for _, id := range itemIDs {
			if seen[id] {
				continue
			}
			seen[id] = true

			item, err := tx.LockCartItem(ctx, id)
			if err != nil {
				return err
			}
			if item.BuyerID != in.BuyerID {
				return domain.NotFoundf("cart item %s", id)
			}
			if err := requireTotal(item.Quantity, item.UnitPrice); err != nil {
				return err
			}
			items = append(items, *item)
		}

		// Listings are locked in id order so concurrent checkouts cannot deadlock.
		listings := make(map[string]*domain.Listing)
		listingIDs := make([]string, 0, len(items))
		for _, item := range items {
			if _, ok := listings[item.ListingID]; !ok {
				listings[item.ListingID] = nil
				listingIDs = append(listingIDs, item.ListingID)
			}
		}
		sort.Strings(listingIDs)
		for _, id := range listingIDs {
			listing, err := tx.LockListing(ctx, id)
			if err != nil {
				return err
			}
			if err := checkPurchasable(*listing, in.BuyerID); err != nil {
				return err
			}
			listings[id] = listing
		}

		at := now()
		for _, item := range items {
			listing := listings[item.ListingID]
			offer := domain.Offer{
				ID:        newID(),
				ListingID: listing.ID,
				BuyerID:   in.BuyerID,
				SellerID:  listing.OwnerID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Message:   fmt.Sprintf("Checkout via cart (%s)", method),
				Status:    domain.OfferStatusPending,
				CreatedAt: at,
				UpdatedAt: at,
			}
			if err := tx.InsertOffer(ctx, offer); err != nil {
				return err
			}
			if err := tx.DeleteCartItem(ctx, item.ID); err != nil {
				return err
			}
			offers = append(offers, offer)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("checkout", err)
	}

	s.log.Info("cart checked out",
		zap.String("buyer_id", in.BuyerID),
		zap.Int("offers", len(offers)),
		zap.String("payment_method", method),
	)
	events := make([]domain.Event, 0, len(offers))
	for _, offer := range offers {
		events = append(events, offerCreatedEvent(offer))
	}
	s.events.Enqueue(ctx, events...)

	return offers, nil
}

func (s *CartService) wrap(op string, err error) error {
	if isClientError(err) {
		return err
	}
	s.log.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func checkPurchasable(listing domain.Listing, buyerID string) error {
	if !listing.IsActive() {
		return fmt.Errorf("%w: listing %s is %s", domain.ErrListingUnavailable, listing.ID, listing.Status)
	}
	if listing.OwnerID == buyerID {
		return domain.Invalidf("buyer %s owns listing %s", buyerID, listing.ID)
	}
	return nil
}
