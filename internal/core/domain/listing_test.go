package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecrementStock_Partial(t *testing.T) {
	l := Listing{Stock: dec("100"), Status: ListingStatusActive}

	require.NoError(t, l.DecrementStock(dec("60")))

	assert.True(t, l.Stock.Equal(dec("40")), "stock %s", l.Stock)
	assert.Equal(t, ListingStatusActive, l.Status)
}

func TestDecrementStock_Exhausts(t *testing.T) {
	l := Listing{Stock: dec("12.5"), Status: ListingStatusActive}

	require.NoError(t, l.DecrementStock(dec("12.50")))

	assert.True(t, l.Stock.IsZero())
	assert.Equal(t, ListingStatusSold, l.Status)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	l := Listing{Stock: dec("40"), Status: ListingStatusActive}

	err := l.DecrementStock(dec("50"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, stockErr.Available.Equal(dec("40")))
	assert.True(t, stockErr.Requested.Equal(dec("50")))
	assert.True(t, l.Stock.Equal(dec("40")), "stock must be untouched")
	assert.Equal(t, ListingStatusActive, l.Status)
}

func TestDecrementStock_NonPositive(t *testing.T) {
	l := Listing{Stock: dec("10"), Status: ListingStatusActive}

	assert.ErrorIs(t, l.DecrementStock(decimal.Zero), ErrInvalidArgument)
	assert.ErrorIs(t, l.DecrementStock(dec("-1")), ErrInvalidArgument)
}
