package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/agriflow/marketplace/internal/core/domain"
)

func acceptedOrder(t *testing.T, env *testEnv) domain.Order {
	t.Helper()
	listing := env.listing(t, "farmer-1", "100", "20")
	offer := env.offer(t, listing.ID, "buyer-1", "10")
	res, err := env.inventory.Accept(context.Background(), offer.ID)
	require.NoError(t, err)
	return res.Order
}

func TestAdvanceStatus_Delivered(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	order := acceptedOrder(t, env)

	updated, err := env.orders.AdvanceStatus(ctx, order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, updated.Status)

	_, err = env.orders.AdvanceStatus(ctx, order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
	assert.Equal(t, 1, env.sink.count(domain.EventOrderStatusChanged))
}

func TestAdvanceStatus_CancelDoesNotRestock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	order := acceptedOrder(t, env)

	_, err := env.orders.AdvanceStatus(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	listing, err := env.db.GetListing(ctx, order.ListingID)
	require.NoError(t, err)
	assert.True(t, listing.Stock.Equal(dec("90")))
	assert.Equal(t, domain.OfferStatusAccepted, env.offerStatus(t, order.OfferID))
}

func TestAdvanceStatus_Invalid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	order := acceptedOrder(t, env)

	_, err := env.orders.AdvanceStatus(ctx, order.ID, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = env.orders.AdvanceStatus(ctx, order.ID, domain.OrderStatus("SHIPPED"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = env.orders.AdvanceStatus(ctx, "missing", domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	order := acceptedOrder(t, env)

	byBuyer, err := env.orders.ListForBuyer(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, order.ID, byBuyer[0].ID)

	bySeller, err := env.orders.ListForSeller(ctx, "farmer-1")
	require.NoError(t, err)
	assert.Len(t, bySeller, 1)

	none, err := env.orders.ListForBuyer(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.orders.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEarnings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(zaptest.NewLogger(t))
	listing := env.listing(t, "farmer-1", "100", "20")

	var orderIDs []string
	for _, qty := range []string{"10", "4", "2"} {
		offer := env.offer(t, listing.ID, "buyer-1", qty)
		res, err := env.inventory.Accept(ctx, offer.ID)
		require.NoError(t, err)
		orderIDs = append(orderIDs, res.Order.ID)
	}
	_, err := env.orders.AdvanceStatus(ctx, orderIDs[1], domain.OrderStatusCancelled)
	require.NoError(t, err)
	_, err = env.orders.AdvanceStatus(ctx, orderIDs[2], domain.OrderStatusDelivered)
	require.NoError(t, err)

	earnings, err := env.orders.Earnings(ctx, "farmer-1")
	require.NoError(t, err)
	assert.Equal(t, "farmer-1", earnings.SellerID)
	assert.Equal(t, 2, earnings.OrderCount)
	assert.True(t, earnings.Total.Equal(dec("246")), earnings.Total.String())
	assert.True(t, earnings.CurrentMonth.Equal(dec("246")), earnings.CurrentMonth.String())

	none, err := env.orders.Earnings(ctx, "buyer-1")
	require.NoError(t, err)
	assert.True(t, none.Total.IsZero())
	assert.Zero(t, none.OrderCount)

	_, err = env.orders.Earnings(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
