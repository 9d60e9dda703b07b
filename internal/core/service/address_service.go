package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type AddressService struct {
	db  port.DatabaseRepository
	log *zap.Logger
}

func NewAddressService(db port.DatabaseRepository, log *zap.Logger) *AddressService {
	return &AddressService{db: db, log: log}
}

type AddAddressInput struct {
	UserID      string
	Label       string
	AddressLine string
	Latitude    *float64
	Longitude   *float64
	IsDefault   bool
}

// List returns the user's addresses, newest first.
func (s *AddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	return s.db.ListAddresses(ctx, userID)
}

// Add saves an address. A new default replaces the user's previous one.
func (s *AddressService) Add(ctx context.Context, in AddAddressInput) (domain.Address, error) {
	if err := requireID("user id", in.UserID); err != nil {
		return domain.Address{}, err
	}
	if err := requireID("address line", in.AddressLine); err != nil {
		return domain.Address{}, err
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.Address{}, domain.Invalidf("latitude and longitude must be given together")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return domain.Address{}, domain.Invalidf("latitude must be between -90 and 90, got %v", *in.Latitude)
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return domain.Address{}, domain.Invalidf("longitude must be between -180 and 180, got %v", *in.Longitude)
	}

	addr := domain.Address{
		ID:          newID(),
		UserID:      in.UserID,
		Label:       strings.TrimSpace(in.Label),
		AddressLine: strings.TrimSpace(in.AddressLine),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		IsDefault:   in.IsDefault,
		CreatedAt:   now(),
	}
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.InsertAddress(ctx, addr)
	})
	if err != nil {
		s.log.Error("add address failed", zap.String("user_id", in.UserID), zap.Error(err))
		return domain.Address{}, fmt.Errorf("add address: %w", err)
	}

	s.log.Debug("address added",
		zap.String("address_id", addr.ID),
		zap.String("user_id", addr.UserID),
		zap.Bool("default", addr.IsDefault),
	)
	return addr, nil
}

// Delete removes one of the user's addresses. Addresses owned by someone else are reported as not found.
func (s *AddressService) Delete(ctx context.Context, userID, addressID string) error {
	if err := requireID("user id", userID); err != nil {
		return err
	}
	if err := requireID("address id", addressID); err != nil {
		return err
	}
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.DeleteAddress(ctx, userID, addressID)
	})
	if err != nil {
		if !isClientError(err) {
			s.log.Error("delete address failed", zap.String("address_id", addressID), zap.Error(err))
			return fmt.Errorf("delete address %s: %w", addressID, err)
		}
		return err
	}
	return nil
}
