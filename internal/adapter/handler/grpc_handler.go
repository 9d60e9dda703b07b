package handler

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/core/service"
)

type GRPCHandler struct {
	offers *service.OfferService
	orders *service.OrderService
	log    *zap.Logger
}

var _ MarketplaceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(offers *service.OfferService, orders *service.OrderService, log *zap.Logger) *GRPCHandler {
	return &GRPCHandler{offers: offers, orders: orders, log: log}
}

func (h *GRPCHandler) CreateOffer(ctx context.Context, req *CreateOfferRequest) (*CreateOfferResponse, error) {
	quantity, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		return &CreateOfferResponse{Outcome: h.outcome(err)}, nil
	}
	price, err := parseDecimal("unitPrice", req.UnitPrice)
	if err != nil {
		return &CreateOfferResponse{Outcome: h.outcome(err)}, nil
	}

	offer, err := h.offers.CreateOffer(ctx, service.CreateOfferInput{
		RequestID: req.RequestID,
		ListingID: req.ListingID,
		BuyerID:   req.BuyerID,
		Quantity:  quantity,
		UnitPrice: price,
		Message:   req.Message,
	})
	if err != nil {
		return &CreateOfferResponse{Outcome: h.outcome(err)}, nil
	}

	return &CreateOfferResponse{
		Outcome: Outcome{Success: true, Message: "offer created"},
		OfferID: offer.ID,
		Status:  string(offer.Status),
	}, nil
}

func (h *GRPCHandler) RespondToOffer(ctx context.Context, req *RespondToOfferRequest) (*RespondToOfferResponse, error) {
	offer, err := h.offers.Respond(ctx, req.OfferID, domain.Decision(strings.ToUpper(req.Decision)))
	if err != nil {
		return &RespondToOfferResponse{Outcome: h.outcome(err), OfferID: req.OfferID}, nil
	}

	return &RespondToOfferResponse{
		Outcome: Outcome{Success: true},
		OfferID: offer.ID,
		Status:  string(offer.Status),
	}, nil
}

func (h *GRPCHandler) AdvanceOrder(ctx context.Context, req *AdvanceOrderRequest) (*AdvanceOrderResponse, error) {
	order, err := h.orders.AdvanceStatus(ctx, req.OrderID, domain.OrderStatus(strings.ToUpper(req.NewStatus)))
	if err != nil {
		return &AdvanceOrderResponse{Outcome: h.outcome(err), OrderID: req.OrderID}, nil
	}

	return &AdvanceOrderResponse{
		Outcome: Outcome{Success: true},
		OrderID: order.ID,
		Status:  string(order.Status),
	}, nil
}

func (h *GRPCHandler) outcome(err error) Outcome {
	f := classify(err)
	if f.Code == CodeInternal {
		h.log.Error("grpc call failed", zap.Error(err))
	}
	return Outcome{Code: f.Code, Message: f.Message, Available: f.Available}
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, domain.Invalidf("%s must be a decimal number, got %q", field, value)
	}
	return d, nil
}

// LoggingInterceptor logs every unary call with its outcome and latency.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Error("gRPC request failed", append(fields, zap.Error(err))...)
			return resp, err
		}
		if r, ok := resp.(interface{ outcome() Outcome }); ok && !r.outcome().Success {
			fields = append(fields, zap.String("code", r.outcome().Code))
		}
		log.Info("gRPC request completed", fields...)
		return resp, nil
	}
}

func (r *CreateOfferResponse) outcome() Outcome    { return r.Outcome }
func (r *RespondToOfferResponse) outcome() Outcome { return r.Outcome }
func (r *AdvanceOrderResponse) outcome() Outcome   { return r.Outcome }
