package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

// runRepositoryTests exercises the DatabaseRepository behaviour every
// adapter must share. Ids are random so runs against a shared MySQL
// schema do not collide.
func runRepositoryTests(t *testing.T, repo port.DatabaseRepository) {
	t.Run("listing round trip", func(t *testing.T) { testListingRoundTrip(t, repo) })
	t.Run("rollback on error", func(t *testing.T) { testRollbackOnError(t, repo) })
	t.Run("offer resolves once", func(t *testing.T) { testOfferResolvesOnce(t, repo) })
	t.Run("reject pending offers", func(t *testing.T) { testRejectPendingOffers(t, repo) })
	t.Run("one order per offer", func(t *testing.T) { testOneOrderPerOffer(t, repo) })
	t.Run("cart upsert", func(t *testing.T) { testCartUpsert(t, repo) })
	t.Run("rating summary", func(t *testing.T) { testRatingSummary(t, repo) })
	t.Run("addresses", func(t *testing.T) { testAddresses(t, repo) })
	t.Run("missing rows", func(t *testing.T) { testMissingRows(t, repo) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTime() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func seedListing(t *testing.T, repo port.DatabaseRepository, ownerID, stock string) domain.Listing {
	t.Helper()
	at := testTime()
	l := domain.Listing{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		CropName:     "Maize",
		Stock:        dec(stock),
		QuantityUnit: "kg",
		UnitPrice:    dec("12.50"),
		Location:     "Nakuru",
		Status:       domain.ListingStatusActive,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx port.Tx) error {
		return tx.InsertListing(ctx, l)
	})
	require.NoError(t, err)
	return l
}

func seedOffer(t *testing.T, repo port.DatabaseRepository, l domain.Listing, buyerID, qty string) domain.Offer {
	t.Helper()
	at := testTime()
	o := domain.Offer{
		ID:        uuid.NewString(),
		ListingID: l.ID,
		BuyerID:   buyerID,
		SellerID:  l.OwnerID,
		Quantity:  dec(qty),
		UnitPrice: dec("11.00"),
		Message:   "offer",
		Status:    domain.OfferStatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx port.Tx) error {
		return tx.InsertOffer(ctx, o)
	})
	require.NoError(t, err)
	return o
}

func testListingRoundTrip(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	owner := uuid.NewString()
	l := seedListing(t, repo, owner, "100.250")

	got, err := repo.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.OwnerID, got.OwnerID)
	assert.True(t, got.Stock.Equal(l.Stock), "stock %s", got.Stock)
	assert.True(t, got.UnitPrice.Equal(l.UnitPrice))
	assert.Equal(t, domain.ListingStatusActive, got.Status)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		locked, err := tx.LockListing(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := locked.DecrementStock(locked.Stock); err != nil {
			return err
		}
		locked.UpdatedAt = testTime()
		return tx.UpdateListingStock(ctx, *locked)
	})
	require.NoError(t, err)

	got, err = repo.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.IsZero())
	assert.Equal(t, domain.ListingStatusSold, got.Status)

	byOwner, err := repo.ListListingsByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)

	active, err := repo.ListActiveListings(ctx)
	require.NoError(t, err)
	for _, a := range active {
		assert.NotEqual(t, l.ID, a.ID, "sold listing must not be on the market")
	}
}

func testRollbackOnError(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	l := seedListing(t, repo, uuid.NewString(), "10")
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		locked, err := tx.LockListing(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := locked.DecrementStock(dec("4")); err != nil {
			return err
		}
		if err := tx.UpdateListingStock(ctx, *locked); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(dec("10")), "stock after rollback %s", got.Stock)
}

func testOfferResolvesOnce(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	l := seedListing(t, repo, uuid.NewString(), "10")
	o := seedOffer(t, repo, l, uuid.NewString(), "2")

	err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.UpdateOfferStatus(ctx, o.ID, domain.OfferStatusAccepted, testTime())
	})
	require.NoError(t, err)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.UpdateOfferStatus(ctx, o.ID, domain.OfferStatusRejected, testTime())
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	got, err := repo.GetOffer(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, got.Status)

	resolved, err := repo.ListOffersBySeller(ctx, l.OwnerID, domain.OfferStatusAccepted, domain.OfferStatusRejected)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, o.ID, resolved[0].ID)
}

func testRejectPendingOffers(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	l := seedListing(t, repo, uuid.NewString(), "10")
	other := seedListing(t, repo, uuid.NewString(), "10")

	accepted := seedOffer(t, repo, l, uuid.NewString(), "1")
	p1 := seedOffer(t, repo, l, uuid.NewString(), "1")
	p2 := seedOffer(t, repo, l, uuid.NewString(), "1")
	untouched := seedOffer(t, repo, other, uuid.NewString(), "1")

	var rejected []string
	err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		if err := tx.UpdateOfferStatus(ctx, accepted.ID, domain.OfferStatusAccepted, testTime()); err != nil {
			return err
		}
		var err error
		rejected, err = tx.RejectPendingOffers(ctx, l.ID, testTime())
		return err
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p1.ID, p2.ID}, rejected)

	pending, err := repo.ListOffersByListing(ctx, l.ID, domain.OfferStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := repo.GetOffer(ctx, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, got.Status)

	got, err = repo.GetOffer(ctx, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusPending, got.Status)
}

func testOneOrderPerOffer(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	l := seedListing(t, repo, uuid.NewString(), "10")
	o := seedOffer(t, repo, l, uuid.NewString(), "3")

	first := domain.NewOrderFromOffer(uuid.NewString(), o, l, testTime())
	err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.InsertOrder(ctx, first)
	})
	require.NoError(t, err)

	second := domain.NewOrderFromOffer(uuid.NewString(), o, l, testTime())
	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.InsertOrder(ctx, second)
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	got, err := repo.GetOrderByOffer(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, got.TotalPrice.Equal(dec("33")), "total %s", got.TotalPrice)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		order, err := tx.LockOrder(ctx, first.ID)
		if err != nil {
			return err
		}
		if err := order.Advance(domain.OrderStatusDelivered, testTime()); err != nil {
			return err
		}
		return tx.UpdateOrderStatus(ctx, order.ID, order.Status, order.UpdatedAt)
	})
	require.NoError(t, err)

	byBuyer, err := repo.ListOrdersByBuyer(ctx, o.BuyerID)
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, domain.OrderStatusDelivered, byBuyer[0].Status)

	bySeller, err := repo.ListOrdersBySeller(ctx, l.OwnerID)
	require.NoError(t, err)
	assert.Len(t, bySeller, 1)
}

func testCartUpsert(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	l := seedListing(t, repo, uuid.NewString(), "10")
	buyer := uuid.NewString()

	add := func(qty string) *domain.CartItem {
		var item *domain.CartItem
		err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
			var err error
			item, err = tx.UpsertCartItem(ctx, domain.CartItem{
				ID:        uuid.NewString(),
				BuyerID:   buyer,
				ListingID: l.ID,
				Quantity:  dec(qty),
				UnitPrice: l.UnitPrice,
				CreatedAt: testTime(),
				UpdatedAt: testTime(),
			})
			return err
		})
		require.NoError(t, err)
		return item
	}

	first := add("1.5")
	second := add("2")
	assert.Equal(t, first.ID, second.ID, "same buyer and listing share one line")
	assert.True(t, second.Quantity.Equal(dec("3.5")), "quantity %s", second.Quantity)

	err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.UpdateCartItemQuantity(ctx, first.ID, dec("0.5"), testTime())
	})
	require.NoError(t, err)

	items, err := repo.ListCartItems(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.Equal(dec("0.5")))

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteCartItem(ctx, first.ID)
	})
	require.NoError(t, err)

	items, err = repo.ListCartItems(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testRatingSummary(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	target := uuid.NewString()

	summary, err := repo.RatingSummary(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, domain.DefaultRating, summary.Average)

	for _, score := range []int{4, 5, 3} {
		score := score
		err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
			return tx.InsertRating(ctx, domain.Rating{
				ID:         uuid.NewString(),
				ReviewerID: uuid.NewString(),
				TargetID:   target,
				Score:      score,
				CreatedAt:  testTime(),
			})
		})
		require.NoError(t, err)
	}

	summary, err = repo.RatingSummary(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 4.0, summary.Average, 0.0001)
}

func testAddresses(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	user := uuid.NewString()
	base := testTime()
	lat, lng := 17.385, 78.4867

	insert := func(label string, isDefault bool, at time.Time) domain.Address {
		a := domain.Address{
			ID:          uuid.NewString(),
			UserID:      user,
			Label:       label,
			AddressLine: label + " road",
			IsDefault:   isDefault,
			CreatedAt:   at,
		}
		if label == "farm" {
			a.Latitude, a.Longitude = &lat, &lng
		}
		err := repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
			return tx.InsertAddress(ctx, a)
		})
		require.NoError(t, err)
		return a
	}

	home := insert("home", true, base)
	farm := insert("farm", true, base.Add(time.Second))
	insert("shop", false, base.Add(2*time.Second))

	addrs, err := repo.ListAddresses(ctx, user)
	require.NoError(t, err)
	require.Len(t, addrs, 3)
	assert.Equal(t, []string{"shop", "farm", "home"}, []string{addrs[0].Label, addrs[1].Label, addrs[2].Label})
	assert.False(t, addrs[0].IsDefault)
	assert.True(t, addrs[1].IsDefault)
	assert.False(t, addrs[2].IsDefault, "older default is cleared")
	require.NotNil(t, addrs[1].Latitude)
	assert.InDelta(t, lat, *addrs[1].Latitude, 1e-9)
	assert.Nil(t, addrs[2].Latitude)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteAddress(ctx, uuid.NewString(), farm.ID)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteAddress(ctx, user, home.ID)
	})
	require.NoError(t, err)

	addrs, err = repo.ListAddresses(ctx, user)
	require.NoError(t, err)
	assert.Len(t, addrs, 2)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteAddress(ctx, user, home.ID)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testMissingRows(t *testing.T, repo port.DatabaseRepository) {
	ctx := context.Background()
	missing := uuid.NewString()

	_, err := repo.GetListing(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetOffer(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetOrder(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		_, err := tx.LockOffer(ctx, missing)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteCartItem(ctx, missing)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
