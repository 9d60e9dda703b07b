package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/adapter/storage"
	"github.com/agriflow/marketplace/internal/core/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Enqueue(_ context.Context, events ...domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recordingSink) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingSink) count(typ domain.EventType) int {
	n := 0
	for _, t := range r.types() {
		if t == typ {
			n++
		}
	}
	return n
}

type testEnv struct {
	db        *storage.MemoryAdapter
	cache     *storage.MemoryCache
	sink      *recordingSink
	listings  *ListingService
	offers    *OfferService
	inventory *InventoryProcessor
	orders    *OrderService
	cart      *CartService
	ratings   *RatingService
	addresses *AddressService
}

func newTestEnv(log *zap.Logger) *testEnv {
	db := storage.NewMemoryAdapter()
	cache := storage.NewMemoryCache(time.Hour)
	sink := &recordingSink{}
	inventory := NewInventoryProcessor(db, sink, log)

	return &testEnv{
		db:        db,
		cache:     cache,
		sink:      sink,
		listings:  NewListingService(db, sink, log),
		offers:    NewOfferService(db, cache, inventory, sink, log),
		inventory: inventory,
		orders:    NewOrderService(db, sink, log),
		cart:      NewCartService(db, cache, sink, log),
		ratings:   NewRatingService(db, log),
		addresses: NewAddressService(db, log),
	}
}

func (e *testEnv) listing(t require.TestingT, owner, stock, price string) domain.Listing {
	l, err := e.listings.CreateListing(context.Background(), CreateListingInput{
		OwnerID:   owner,
		CropName:  "Wheat",
		Quantity:  dec(stock),
		UnitPrice: dec(price),
	})
	require.NoError(t, err)
	return l
}

func (e *testEnv) offer(t require.TestingT, listingID, buyer, qty string) domain.Offer {
	o, err := e.offers.CreateOffer(context.Background(), CreateOfferInput{
		ListingID: listingID,
		BuyerID:   buyer,
		Quantity:  dec(qty),
		UnitPrice: dec("20.50"),
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) offerStatus(t require.TestingT, id string) domain.OfferStatus {
	o, err := e.db.GetOffer(context.Background(), id)
	require.NoError(t, err)
	return o.Status
}
