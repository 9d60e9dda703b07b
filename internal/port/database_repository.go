package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriflow/marketplace/internal/core/domain"
)

// DatabaseRepository is the persistent store. Reads outside WithinTx see
// committed state only; every mutation goes through a Tx.
type DatabaseRepository interface {
	// WithinTx runs fn in a single transaction. It commits when fn returns
	// nil and rolls back every mutation otherwise, returning fn's error.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListActiveListings(ctx context.Context) ([]domain.Listing, error)
	ListListingsByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)

	GetOffer(ctx context.Context, id string) (*domain.Offer, error)
	ListOffersByListing(ctx context.Context, listingID string, status domain.OfferStatus) ([]domain.Offer, error)
	ListOffersBySeller(ctx context.Context, sellerID string, statuses ...domain.OfferStatus) ([]domain.Offer, error)

	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByOffer(ctx context.Context, offerID string) (*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)

	ListCartItems(ctx context.Context, buyerID string) ([]domain.CartItem, error)

	RatingSummary(ctx context.Context, targetID string) (domain.RatingSummary, error)

	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
}

// Tx is the unit of work handed to WithinTx. Lock* methods take a write lock
// on the row for the rest of the transaction and return domain.ErrNotFound
// for missing rows. Callers lock a listing before any of its offers.
type Tx interface {
	InsertListing(ctx context.Context, listing domain.Listing) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	LockListing(ctx context.Context, id string) (*domain.Listing, error)
	UpdateListingStock(ctx context.Context, listing domain.Listing) error

	InsertOffer(ctx context.Context, offer domain.Offer) error
	LockOffer(ctx context.Context, id string) (*domain.Offer, error)
	// UpdateOfferStatus fails with domain.ErrAlreadyResolved unless the offer is still PENDING.
	UpdateOfferStatus(ctx context.Context, id string, status domain.OfferStatus, at time.Time) error
	// RejectPendingOffers rejects every PENDING offer on the listing and returns their ids.
	RejectPendingOffers(ctx context.Context, listingID string, at time.Time) ([]string, error)

	InsertOrder(ctx context.Context, order domain.Order) error
	LockOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error

	// UpsertCartItem adds the item's quantity to an existing line for the same buyer and listing.
	UpsertCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	LockCartItem(ctx context.Context, id string) (*domain.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, id string, quantity decimal.Decimal, at time.Time) error
	DeleteCartItem(ctx context.Context, id string) error

	InsertRating(ctx context.Context, rating domain.Rating) error

	// InsertAddress stores addr. When addr is a default, the user's other
	// addresses stop being defaults in the same transaction.
	InsertAddress(ctx context.Context, addr domain.Address) error
	// DeleteAddress returns domain.ErrNotFound when the address is missing or belongs to another user.
	DeleteAddress(ctx context.Context, userID, id string) error
}
