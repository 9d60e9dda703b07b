package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrListingUnavailable = errors.New("listing unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrAlreadyResolved    = errors.New("offer already resolved")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateRequest   = errors.New("duplicate request")
)

// InsufficientStockError carries the stock that was available when the
// deduction was refused so the caller can retry with a smaller quantity.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %s, requested %s", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
