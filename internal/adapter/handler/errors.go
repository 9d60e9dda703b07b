package handler

import (
	"errors"
	"net/http"

	"github.com/agriflow/marketplace/internal/core/domain"
)

const (
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeNotFound           = "NOT_FOUND"
	CodeListingUnavailable = "LISTING_UNAVAILABLE"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeAlreadyResolved    = "ALREADY_RESOLVED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeDuplicateRequest   = "DUPLICATE_REQUEST"
	CodeInternal           = "INTERNAL"
)

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrInvalidArgument, CodeInvalidArgument, http.StatusBadRequest},
	{domain.ErrNotFound, CodeNotFound, http.StatusNotFound},
	{domain.ErrListingUnavailable, CodeListingUnavailable, http.StatusConflict},
	{domain.ErrInsufficientStock, CodeInsufficientStock, http.StatusConflict},
	{domain.ErrAlreadyResolved, CodeAlreadyResolved, http.StatusConflict},
	{domain.ErrInvalidTransition, CodeInvalidTransition, http.StatusConflict},
	{domain.ErrDuplicateRequest, CodeDuplicateRequest, http.StatusConflict},
}

// failure is the transport-neutral form of a service error.
type failure struct {
	Status    int
	Code      string
	Message   string
	Available string
}

func classify(err error) failure {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			f := failure{Status: c.status, Code: c.code, Message: err.Error()}
			var stockErr *domain.InsufficientStockError
			if errors.As(err, &stockErr) {
				f.Available = stockErr.Available.String()
			}
			return f
		}
	}
	return failure{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error"}
}
