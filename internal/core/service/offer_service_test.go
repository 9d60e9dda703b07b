package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/agriflow/marketplace/internal/core/domain"
)

func TestCreateOffer(t *testing.T) {
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "100", "20")

	offer, err := env.offers.CreateOffer(context.Background(), CreateOfferInput{
		ListingID: listing.ID,
		BuyerID:   "buyer-1",
		Quantity:  dec("12.345"),
		UnitPrice: dec("19.99"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, offer.ID)
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
	assert.Equal(t, "farmer-1", offer.SellerID)
	assert.NotEmpty(t, offer.Message)
	assert.Equal(t, []domain.EventType{domain.EventListingCreated, domain.EventOfferCreated}, env.sink.types())

	pending, err := env.offers.ListPendingOffers(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, offer.ID, pending[0].ID)
}

func TestCreateOffer_MayExceedStock(t *testing.T) {
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "10", "20")

	offer := env.offer(t, listing.ID, "buyer-1", "500")
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
}

func TestCreateOffer_Invalid(t *testing.T) {
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "100", "20")

	tests := []struct {
		name string
		in   CreateOfferInput
		want error
	}{
		{"zero quantity", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("0"), UnitPrice: dec("1")}, domain.ErrInvalidArgument},
		{"negative quantity", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("-1"), UnitPrice: dec("1")}, domain.ErrInvalidArgument},
		{"quantity too precise", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("1.0001"), UnitPrice: dec("1")}, domain.ErrInvalidArgument},
		{"zero price", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("1"), UnitPrice: dec("0")}, domain.ErrInvalidArgument},
		{"price too precise", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("1"), UnitPrice: dec("1.001")}, domain.ErrInvalidArgument},
		{"huge quantity exponent", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("1e5000000"), UnitPrice: dec("1")}, domain.ErrInvalidArgument},
		{"total out of range", CreateOfferInput{ListingID: listing.ID, BuyerID: "b", Quantity: dec("10000000000"), UnitPrice: dec("10000000000")}, domain.ErrInvalidArgument},
		{"missing buyer", CreateOfferInput{ListingID: listing.ID, Quantity: dec("1"), UnitPrice: dec("1")}, domain.ErrInvalidArgument},
		{"own listing", CreateOfferInput{ListingID: listing.ID, BuyerID: "farmer-1", Quantity: dec("1"), UnitPrice: dec("1")}, domain.ErrInvalidArgument},
		{"unknown listing", CreateOfferInput{ListingID: "missing", BuyerID: "b", Quantity: dec("1"), UnitPrice: dec("1")}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.offers.CreateOffer(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateOffer_SoldListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "10", "20")
	offer := env.offer(t, listing.ID, "buyer-1", "10")

	_, err := env.offers.Respond(ctx, offer.ID, domain.DecisionAccept)
	require.NoError(t, err)

	_, err = env.offers.CreateOffer(ctx, CreateOfferInput{
		ListingID: listing.ID,
		BuyerID:   "buyer-2",
		Quantity:  dec("1"),
		UnitPrice: dec("20"),
	})
	assert.ErrorIs(t, err, domain.ErrListingUnavailable)
}

func TestCreateOffer_DuplicateRequest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "100", "20")

	in := CreateOfferInput{
		RequestID: "req-1",
		ListingID: listing.ID,
		BuyerID:   "buyer-1",
		Quantity:  dec("5"),
		UnitPrice: dec("20"),
	}
	_, err := env.offers.CreateOffer(ctx, in)
	require.NoError(t, err)

	_, err = env.offers.CreateOffer(ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	pending, err := env.offers.ListPendingOffers(ctx, listing.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCreateOffer_FailureReleasesRequestID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "100", "20")

	in := CreateOfferInput{
		RequestID: "req-1",
		ListingID: "missing",
		BuyerID:   "buyer-1",
		Quantity:  dec("5"),
		UnitPrice: dec("20"),
	}
	_, err := env.offers.CreateOffer(ctx, in)
	require.ErrorIs(t, err, domain.ErrNotFound)

	in.ListingID = listing.ID
	_, err = env.offers.CreateOffer(ctx, in)
	assert.NoError(t, err)
}

func TestRespond_Reject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "100", "20")
	offer := env.offer(t, listing.ID, "buyer-1", "10")

	rejected, err := env.offers.Respond(ctx, offer.ID, domain.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusRejected, rejected.Status)

	_, err = env.offers.Respond(ctx, offer.ID, domain.DecisionReject)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	_, err = env.offers.Respond(ctx, offer.ID, domain.DecisionAccept)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	stored, err := env.db.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, stored.Stock.Equal(dec("100")))
}

func TestRespond_AcceptInsufficientStockKeepsOfferPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "5", "20")
	offer := env.offer(t, listing.ID, "buyer-1", "6")

	_, err := env.offers.Respond(ctx, offer.ID, domain.DecisionAccept)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, stockErr.Available.Equal(dec("5")))
	assert.Equal(t, domain.OfferStatusPending, env.offerStatus(t, offer.ID))

	// Still answerable after the failed accept.
	_, err = env.offers.Respond(ctx, offer.ID, domain.DecisionReject)
	assert.NoError(t, err)
}

func TestRespond_InvalidInput(t *testing.T) {
	env := newTestEnv(zaptest.NewLogger(t))

	_, err := env.offers.Respond(context.Background(), "offer-1", domain.Decision("MAYBE"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = env.offers.Respond(context.Background(), "missing", domain.DecisionReject)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPendingOffers_UnknownListing(t *testing.T) {
	env := newTestEnv(zaptest.NewLogger(t))

	_, err := env.offers.ListPendingOffers(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSellerInboxAndHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	wheat := env.listing(t, "farmer-1", "100", "20")
	rice := env.listing(t, "farmer-1", "50", "30")
	other := env.listing(t, "farmer-2", "50", "30")

	accepted := env.offer(t, wheat.ID, "buyer-1", "10")
	rejected := env.offer(t, rice.ID, "buyer-2", "5")
	open := env.offer(t, rice.ID, "buyer-3", "5")
	env.offer(t, other.ID, "buyer-1", "5")

	res, err := env.inventory.Accept(ctx, accepted.ID)
	require.NoError(t, err)
	_, err = env.offers.Respond(ctx, rejected.ID, domain.DecisionReject)
	require.NoError(t, err)
	_, err = env.orders.AdvanceStatus(ctx, res.Order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)

	inbox, err := env.offers.ListPendingForSeller(ctx, "farmer-1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, open.ID, inbox[0].ID)

	history, err := env.offers.History(ctx, "farmer-1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	byID := make(map[string]domain.OfferHistoryEntry)
	for _, entry := range history {
		byID[entry.Offer.ID] = entry
	}
	assert.Equal(t, res.Order.ID, byID[accepted.ID].OrderID)
	assert.Equal(t, domain.OrderStatusDelivered, byID[accepted.ID].OrderStatus)
	assert.Empty(t, byID[rejected.ID].OrderID)
	assert.Equal(t, domain.OfferStatusRejected, byID[rejected.ID].Offer.Status)
}
