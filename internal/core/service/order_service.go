package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type OrderService struct {
	db     port.DatabaseRepository
	events EventSink
	log    *zap.Logger
}

func NewOrderService(db port.DatabaseRepository, events EventSink, log *zap.Logger) *OrderService {
	return &OrderService{db: db, events: orDiscard(events), log: log}
}

// AdvanceStatus moves a CONFIRMED order to DELIVERED or CANCELLED. Listings
// and offers are left alone: a cancelled order does not restock.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if err := requireID("order id", orderID); err != nil {
		return domain.Order{}, err
	}
	if status != domain.OrderStatusDelivered && status != domain.OrderStatusCancelled {
		return domain.Order{}, domain.Invalidf("new status must be DELIVERED or CANCELLED, got %q", status)
	}

	var (
		order    *domain.Order
		previous domain.OrderStatus
	)
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		previous = order.Status
		if err := order.Advance(status, now()); err != nil {
			return err
		}
		return tx.UpdateOrderStatus(ctx, order.ID, order.Status, order.UpdatedAt)
	})
	if err != nil {
		if !isClientError(err) {
			s.log.Error("advance order failed", zap.String("order_id", orderID), zap.Error(err))
			return domain.Order{}, fmt.Errorf("advance order %s: %w", orderID, err)
		}
		return domain.Order{}, err
	}

	s.log.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
	)
	s.events.Enqueue(ctx, newEvent(domain.EventOrderStatusChanged, order.ID, order.UpdatedAt, map[string]any{
		"from":     string(previous),
		"to":       string(order.Status),
		"buyer_id": order.BuyerID,
	}))

	return *order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if err := requireID("order id", orderID); err != nil {
		return domain.Order{}, err
	}
	order, err := s.db.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func (s *OrderService) ListForBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if err := requireID("buyer id", buyerID); err != nil {
		return nil, err
	}
	return s.db.ListOrdersByBuyer(ctx, buyerID)
}

func (s *OrderService) ListForSeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	if err := requireID("seller id", sellerID); err != nil {
		return nil, err
	}
	return s.db.ListOrdersBySeller(ctx, sellerID)
}

// Earnings reports the seller's sales totals over all time and for the current UTC month.
func (s *OrderService) Earnings(ctx context.Context, sellerID string) (domain.Earnings, error) {
	if err := requireID("seller id", sellerID); err != nil {
		return domain.Earnings{}, err
	}
	orders, err := s.db.ListOrdersBySeller(ctx, sellerID)
	if err != nil {
		return domain.Earnings{}, fmt.Errorf("list orders for seller %s: %w", sellerID, err)
	}
	return domain.SummarizeEarnings(sellerID, orders, domain.MonthStart(now())), nil
}
