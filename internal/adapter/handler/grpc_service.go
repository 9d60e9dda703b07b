package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content subtype of the marketplace service.
// Messages travel as JSON, so clients must call with CallContentSubtype(codecName).
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

const (
	serviceName = "marketplace.v1.MarketplaceService"

	createOfferMethod    = "/" + serviceName + "/CreateOffer"
	respondToOfferMethod = "/" + serviceName + "/RespondToOffer"
	advanceOrderMethod   = "/" + serviceName + "/AdvanceOrder"
)

// Outcome reports failures in-band. Available is set for INSUFFICIENT_STOCK.
type Outcome struct {
	Success   bool   `json:"success"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Available string `json:"available,omitempty"`
}

// Quantities and prices are decimal strings.
type CreateOfferRequest struct {
	RequestID string `json:"requestId,omitempty"`
	ListingID string `json:"listingId"`
	BuyerID   string `json:"buyerId"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Message   string `json:"message,omitempty"`
}

type CreateOfferResponse struct {
	Outcome
	OfferID string `json:"offerId,omitempty"`
	Status  string `json:"status,omitempty"`
}

type RespondToOfferRequest struct {
	OfferID  string `json:"offerId"`
	Decision string `json:"decision"`
}

type RespondToOfferResponse struct {
	Outcome
	OfferID string `json:"offerId,omitempty"`
	Status  string `json:"status,omitempty"`
}

type AdvanceOrderRequest struct {
	OrderID   string `json:"orderId"`
	NewStatus string `json:"newStatus"`
}

type AdvanceOrderResponse struct {
	Outcome
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
}

type MarketplaceServer interface {
	CreateOffer(context.Context, *CreateOfferRequest) (*CreateOfferResponse, error)
	RespondToOffer(context.Context, *RespondToOfferRequest) (*RespondToOfferResponse, error)
	AdvanceOrder(context.Context, *AdvanceOrderRequest) (*AdvanceOrderResponse, error)
}

var MarketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOffer", Handler: createOfferHandler},
		{MethodName: "RespondToOffer", Handler: respondToOfferHandler},
		{MethodName: "AdvanceOrder", Handler: advanceOrderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/marketplace",
}

func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&MarketplaceServiceDesc, srv)
}

func createOfferHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateOfferRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketplaceServer).CreateOffer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: createOfferMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketplaceServer).CreateOffer(ctx, req.(*CreateOfferRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func respondToOfferHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RespondToOfferRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketplaceServer).RespondToOffer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: respondToOfferMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketplaceServer).RespondToOffer(ctx, req.(*RespondToOfferRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func advanceOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AdvanceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketplaceServer).AdvanceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: advanceOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketplaceServer).AdvanceOrder(ctx, req.(*AdvanceOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// MarketplaceClient calls the marketplace service over a gRPC connection.
type MarketplaceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketplaceClient(cc grpc.ClientConnInterface) *MarketplaceClient {
	return &MarketplaceClient{cc: cc}
}

func (c *MarketplaceClient) CreateOffer(ctx context.Context, in *CreateOfferRequest, opts ...grpc.CallOption) (*CreateOfferResponse, error) {
	out := new(CreateOfferResponse)
	if err := c.cc.Invoke(ctx, createOfferMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) RespondToOffer(ctx context.Context, in *RespondToOfferRequest, opts ...grpc.CallOption) (*RespondToOfferResponse, error) {
	out := new(RespondToOfferResponse)
	if err := c.cc.Invoke(ctx, respondToOfferMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) AdvanceOrder(ctx context.Context, in *AdvanceOrderRequest, opts ...grpc.CallOption) (*AdvanceOrderResponse, error) {
	out := new(AdvanceOrderResponse)
	if err := c.cc.Invoke(ctx, advanceOrderMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
