package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const defaultQuantityUnit = "kg"

type CreateListingInput struct {
	OwnerID      string
	CropName     string
	Quantity     decimal.Decimal
	QuantityUnit string
	UnitPrice    decimal.Decimal
	ImageURL     string
	Location     string
}

type ListingService struct {
	db     port.DatabaseRepository
	events EventSink
	log    *zap.Logger
}

func NewListingService(db port.DatabaseRepository, events EventSink, log *zap.Logger) *ListingService {
	return &ListingService{db: db, events: orDiscard(events), log: log}
}

func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (domain.Listing, error) {
	if err := requireID("owner id", in.OwnerID); err != nil {
		return domain.Listing{}, err
	}
	if err := requireID("crop name", in.CropName); err != nil {
		return domain.Listing{}, err
	}
	if err := requirePositive("quantity", in.Quantity, quantityLimit); err != nil {
		return domain.Listing{}, err
	}
	if err := requirePositive("unit price", in.UnitPrice, priceLimit); err != nil {
		return domain.Listing{}, err
	}

	unit := strings.TrimSpace(in.QuantityUnit)
	if unit == "" {
		unit = defaultQuantityUnit
	}

	at := now()
	listing := domain.Listing{
		ID:           newID(),
		OwnerID:      in.OwnerID,
		CropName:     strings.TrimSpace(in.CropName),
		Stock:        in.Quantity,
		QuantityUnit: unit,
		UnitPrice:    in.UnitPrice,
		ImageURL:     in.ImageURL,
		Location:     in.Location,
		Status:       domain.ListingStatusActive,
		CreatedAt:    at,
		UpdatedAt:    at,
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.InsertListing(ctx, listing)
	})
	if err != nil {
		return domain.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.String("owner_id", listing.OwnerID),
		zap.String("crop", listing.CropName),
		zap.String("stock", listing.Stock.String()),
	)
	s.events.Enqueue(ctx, newEvent(domain.EventListingCreated, listing.ID, at, map[string]any{
		"owner_id":   listing.OwnerID,
		"crop_name":  listing.CropName,
		"stock":      listing.Stock.String(),
		"unit":       listing.QuantityUnit,
		"unit_price": listing.UnitPrice.String(),
	}))

	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	if err := requireID("listing id", id); err != nil {
		return domain.Listing{}, err
	}
	listing, err := s.db.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	return *listing, nil
}

// ListMarket returns every listing still open for offers, newest first.
func (s *ListingService) ListMarket(ctx context.Context) ([]domain.Listing, error) {
	return s.db.ListActiveListings(ctx)
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	if err := requireID("owner id", ownerID); err != nil {
		return nil, err
	}
	return s.db.ListListingsByOwner(ctx, ownerID)
}
