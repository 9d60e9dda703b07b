package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderFromOffer(t *testing.T) {
	now := time.Now()
	listing := Listing{ID: "l1", OwnerID: "farmer", QuantityUnit: "kg"}
	offer := Offer{ID: "o1", ListingID: "l1", BuyerID: "buyer", Quantity: dec("60"), UnitPrice: dec("20")}

	order := NewOrderFromOffer("ord1", offer, listing, now)

	assert.Equal(t, "ord1", order.ID)
	assert.Equal(t, "o1", order.OfferID)
	assert.Equal(t, "l1", order.ListingID)
	assert.Equal(t, "buyer", order.BuyerID)
	assert.Equal(t, "farmer", order.SellerID)
	assert.Equal(t, "kg", order.QuantityUnit)
	assert.True(t, order.Quantity.Equal(dec("60")))
	assert.True(t, order.TotalPrice.Equal(dec("1200")))
	assert.Equal(t, OrderStatusConfirmed, order.Status)
}

func TestOrderAdvance(t *testing.T) {
	for _, target := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		o := Order{Status: OrderStatusConfirmed}
		require.NoError(t, o.Advance(target, time.Now()))
		assert.Equal(t, target, o.Status)

		assert.ErrorIs(t, o.Advance(OrderStatusDelivered, time.Now()), ErrInvalidTransition)
		assert.ErrorIs(t, o.Advance(OrderStatusCancelled, time.Now()), ErrInvalidTransition)
		assert.Equal(t, target, o.Status)
	}
}

func TestOrderAdvance_InvalidTarget(t *testing.T) {
	o := Order{Status: OrderStatusConfirmed}
	assert.ErrorIs(t, o.Advance(OrderStatusConfirmed, time.Now()), ErrInvalidArgument)
	assert.ErrorIs(t, o.Advance("SHIPPED", time.Now()), ErrInvalidArgument)
}

func TestSummarizeEarnings(t *testing.T) {
	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	orders := []Order{
		{SellerID: "farmer", TotalPrice: dec("100"), Status: OrderStatusConfirmed, CreatedAt: monthStart.Add(-time.Hour)},
		{SellerID: "farmer", TotalPrice: dec("250.50"), Status: OrderStatusDelivered, CreatedAt: monthStart},
		{SellerID: "farmer", TotalPrice: dec("40"), Status: OrderStatusConfirmed, CreatedAt: monthStart.Add(48 * time.Hour)},
		{SellerID: "farmer", TotalPrice: dec("999"), Status: OrderStatusCancelled, CreatedAt: monthStart.Add(time.Hour)},
		{SellerID: "someone-else", TotalPrice: dec("77"), Status: OrderStatusConfirmed, CreatedAt: monthStart.Add(time.Hour)},
	}

	e := SummarizeEarnings("farmer", orders, monthStart)

	assert.Equal(t, "farmer", e.SellerID)
	assert.Equal(t, 3, e.OrderCount)
	assert.True(t, e.Total.Equal(dec("390.50")), e.Total.String())
	assert.True(t, e.CurrentMonth.Equal(dec("290.50")), e.CurrentMonth.String())
}

func TestSummarizeEarnings_NoOrders(t *testing.T) {
	e := SummarizeEarnings("farmer", nil, time.Now())
	assert.True(t, e.Total.IsZero())
	assert.True(t, e.CurrentMonth.IsZero())
	assert.Zero(t, e.OrderCount)
}

func TestMonthStart(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2024, time.April, 1, 2, 0, 0, 0, ist)

	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), MonthStart(at))
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
		MonthStart(time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)))
}
