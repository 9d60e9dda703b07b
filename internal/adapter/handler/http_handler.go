package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/core/service"
)

const maxBodyBytes = 1 << 20

// Services bundles the use cases exposed over HTTP and gRPC.
type Services struct {
	Listings  *service.ListingService
	Offers    *service.OfferService
	Orders    *service.OrderService
	Cart      *service.CartService
	Ratings   *service.RatingService
	Forecasts *service.ForecastService
	Addresses *service.AddressService
}

type HTTPHandler struct {
	svc      Services
	log      *zap.Logger
	validate *validator.Validate
	registry *prometheus.Registry
	metrics  *httpMetrics
}

// NewHTTPHandler builds the REST surface. A nil registry disables /metrics.
func NewHTTPHandler(svc Services, log *zap.Logger, registry *prometheus.Registry) *HTTPHandler {
	h := &HTTPHandler{
		svc:      svc,
		log:      log,
		validate: newValidator(),
		registry: registry,
	}
	if registry != nil {
		h.metrics = newHTTPMetrics(registry)
	}
	return h
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.log))
	if h.metrics != nil {
		r.Use(h.metrics.middleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	if h.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/listings", func(r chi.Router) {
			r.Post("/", h.CreateListing)
			r.Get("/", h.ListMarket)
			r.Get("/{listingId}", h.GetListing)
			r.Get("/{listingId}/offers", h.ListPendingOffers)
		})

		r.Post("/offers", h.CreateOffer)
		r.Post("/offers/respond", h.RespondToOffer)

		r.Post("/orders/advance", h.AdvanceOrder)
		r.Get("/orders/{orderId}", h.GetOrder)

		r.Route("/farmers/{farmerId}", func(r chi.Router) {
			r.Get("/listings", h.ListFarmerListings)
			r.Get("/offers", h.ListFarmerOffers)
			r.Get("/offers/history", h.FarmerOfferHistory)
			r.Get("/orders", h.ListFarmerOrders)
			r.Get("/earnings", h.FarmerEarnings)
		})

		r.Get("/buyers/{buyerId}/orders", h.ListBuyerOrders)
		r.Get("/buyers/{buyerId}/cart", h.ListCart)

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", h.AddToCart)
			r.Post("/checkout", h.Checkout)
			r.Put("/{itemId}", h.UpdateCartItem)
			r.Delete("/{itemId}", h.RemoveCartItem)
		})

		r.Post("/ratings", h.SubmitRating)
		r.Get("/users/{userId}/rating", h.GetRating)

		r.Route("/users/{userId}/addresses", func(r chi.Router) {
			r.Get("/", h.ListAddresses)
			r.Post("/", h.AddAddress)
			r.Delete("/{addressId}", h.DeleteAddress)
		})

		r.Post("/market/analyze", h.AnalyzeMarket)
	})

	return r
}

type createListingRequest struct {
	OwnerID      string          `json:"ownerId" validate:"required"`
	CropName     string          `json:"cropName" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuantityUnit string          `json:"quantityUnit"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ImageURL     string          `json:"imageUrl" validate:"omitempty,url"`
	Location     string          `json:"location"`
}

type listingResponse struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"ownerId"`
	CropName     string          `json:"cropName"`
	Stock        decimal.Decimal `json:"stock"`
	QuantityUnit string          `json:"quantityUnit"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Location     string          `json:"location,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type createOfferRequest struct {
	RequestID string          `json:"requestId"`
	ListingID string          `json:"listingId" validate:"required"`
	BuyerID   string          `json:"buyerId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Message   string          `json:"message" validate:"max=500"`
}

type offerStatusResponse struct {
	OfferID string `json:"offerId"`
	Status  string `json:"status"`
}

type respondRequest struct {
	OfferID  string `json:"offerId" validate:"required"`
	Decision string `json:"decision" validate:"required"`
}

type offerResponse struct {
	ID        string          `json:"id"`
	ListingID string          `json:"listingId"`
	BuyerID   string          `json:"buyerId"`
	SellerID  string          `json:"sellerId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
	Message   string          `json:"message,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type historyResponse struct {
	offerResponse
	OrderID     string `json:"orderId,omitempty"`
	OrderStatus string `json:"orderStatus,omitempty"`
}

type advanceRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	NewStatus string `json:"newStatus" validate:"required"`
}

type orderStatusResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type orderResponse struct {
	ID           string          `json:"id"`
	OfferID      string          `json:"offerId"`
	ListingID    string          `json:"listingId"`
	BuyerID      string          `json:"buyerId"`
	SellerID     string          `json:"sellerId"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuantityUnit string          `json:"quantityUnit"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type addToCartRequest struct {
	BuyerID   string          `json:"buyerId" validate:"required"`
	ListingID string          `json:"listingId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type updateCartRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type checkoutRequest struct {
	RequestID     string   `json:"requestId"`
	BuyerID       string   `json:"buyerId" validate:"required"`
	ItemIDs       []string `json:"itemIds" validate:"omitempty,dive,required"`
	PaymentMethod string   `json:"paymentMethod"`
}

type cartItemResponse struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyerId"`
	ListingID string          `json:"listingId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ratingRequest struct {
	ReviewerID string `json:"reviewerId" validate:"required"`
	TargetID   string `json:"targetId" validate:"required"`
	Score      int    `json:"score"`
}

type ratingResponse struct {
	UserID  string  `json:"userId"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type earningsResponse struct {
	FarmerID     string          `json:"farmerId"`
	Total        decimal.Decimal `json:"total"`
	CurrentMonth decimal.Decimal `json:"currentMonth"`
	OrderCount   int             `json:"orderCount"`
}

type addAddressRequest struct {
	Label       string   `json:"label" validate:"max=64"`
	AddressLine string   `json:"addressLine" validate:"required,max=512"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	IsDefault   bool     `json:"isDefault"`
}

type addressResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Label       string    `json:"label"`
	AddressLine string    `json:"addressLine"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}

type analyzeRequest struct {
	CropName     string          `json:"cropName" validate:"required"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available string `json:"available,omitempty"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if !h.decode(w, r, &req) {
		return
	}
	listing, err := h.svc.Listings.CreateListing(r.Context(), service.CreateListingInput{
		OwnerID:      req.OwnerID,
		CropName:     req.CropName,
		Quantity:     req.Quantity,
		QuantityUnit: req.QuantityUnit,
		UnitPrice:    req.UnitPrice,
		ImageURL:     req.ImageURL,
		Location:     req.Location,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *HTTPHandler) ListMarket(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.Listings.ListMarket(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(listings, toListingResponse))
}

func (h *HTTPHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Listings.GetListing(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *HTTPHandler) ListFarmerListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.Listings.ListByOwner(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(listings, toListingResponse))
}

func (h *HTTPHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if !h.decode(w, r, &req) {
		return
	}
	offer, err := h.svc.Offers.CreateOffer(r.Context(), service.CreateOfferInput{
		RequestID: req.RequestID,
		ListingID: req.ListingID,
		BuyerID:   req.BuyerID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Message:   req.Message,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, offerStatusResponse{OfferID: offer.ID, Status: string(offer.Status)})
}

func (h *HTTPHandler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision := domain.Decision(strings.ToUpper(req.Decision))
	offer, err := h.svc.Offers.Respond(r.Context(), req.OfferID, decision)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offerStatusResponse{OfferID: offer.ID, Status: string(offer.Status)})
}

func (h *HTTPHandler) ListPendingOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Offers.ListPendingOffers(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(offers, toOfferResponse))
}

func (h *HTTPHandler) ListFarmerOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Offers.ListPendingForSeller(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(offers, toOfferResponse))
}

func (h *HTTPHandler) FarmerOfferHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Offers.History(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(entries, func(e domain.OfferHistoryEntry) historyResponse {
		return historyResponse{
			offerResponse: toOfferResponse(e.Offer),
			OrderID:       e.OrderID,
			OrderStatus:   string(e.OrderStatus),
		}
	}))
}

func (h *HTTPHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.svc.Orders.AdvanceStatus(r.Context(), req.OrderID, domain.OrderStatus(strings.ToUpper(req.NewStatus)))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderStatusResponse{OrderID: order.ID, Status: string(order.Status)})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) ListBuyerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListForBuyer(r.Context(), chi.URLParam(r, "buyerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, toOrderResponse))
}

func (h *HTTPHandler) ListFarmerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListForSeller(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, toOrderResponse))
}

func (h *HTTPHandler) FarmerEarnings(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Orders.Earnings(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, earningsResponse{
		FarmerID:     e.SellerID,
		Total:        e.Total,
		CurrentMonth: e.CurrentMonth,
		OrderCount:   e.OrderCount,
	})
}

func (h *HTTPHandler) ListCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Cart.List(r.Context(), chi.URLParam(r, "buyerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toCartItemResponse))
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.svc.Cart.Add(r.Context(), service.AddToCartInput{
		BuyerID:   req.BuyerID,
		ListingID: req.ListingID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartItemResponse(item))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.svc.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartItemResponse(item))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cart.Remove(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	offers, err := h.svc.Cart.Checkout(r.Context(), service.CheckoutInput{
		RequestID:     req.RequestID,
		BuyerID:       req.BuyerID,
		ItemIDs:       req.ItemIDs,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSlice(offers, toOfferResponse))
}

func (h *HTTPHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if !h.decode(w, r, &req) {
		return
	}
	summary, err := h.svc.Ratings.Submit(r.Context(), req.ReviewerID, req.TargetID, req.Score)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRatingResponse(summary))
}

func (h *HTTPHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Ratings.Summary(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRatingResponse(summary))
}

func (h *HTTPHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.svc.Addresses.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(addrs, toAddressResponse))
}

func (h *HTTPHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req addAddressRequest
	if !h.decode(w, r, &req) {
		return
	}
	addr, err := h.svc.Addresses.Add(r.Context(), service.AddAddressInput{
		UserID:      chi.URLParam(r, "userId"),
		Label:       req.Label,
		AddressLine: req.AddressLine,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressResponse(addr))
}

func (h *HTTPHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Addresses.Delete(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "addressId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) AnalyzeMarket(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	forecast, err := h.svc.Forecasts.Analyze(r.Context(), req.CropName, req.CurrentPrice)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.writeError(w, r, domain.Invalidf("invalid request body: %v", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, domain.Invalidf("%s", validationMessage(err)))
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	f := classify(err)
	if f.Code == CodeInternal {
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	} else {
		h.log.Debug("request rejected", zap.String("path", r.URL.Path), zap.String("code", f.Code), zap.Error(err))
	}
	writeJSON(w, f.Status, errorResponse{Code: f.Code, Message: f.Message, Available: f.Available})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func toListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		CropName:     l.CropName,
		Stock:        l.Stock,
		QuantityUnit: l.QuantityUnit,
		UnitPrice:    l.UnitPrice,
		ImageURL:     l.ImageURL,
		Location:     l.Location,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func toOfferResponse(o domain.Offer) offerResponse {
	return offerResponse{
		ID:        o.ID,
		ListingID: o.ListingID,
		BuyerID:   o.BuyerID,
		SellerID:  o.SellerID,
		Quantity:  o.Quantity,
		UnitPrice: o.UnitPrice,
		Total:     o.Total(),
		Message:   o.Message,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		OfferID:      o.OfferID,
		ListingID:    o.ListingID,
		BuyerID:      o.BuyerID,
		SellerID:     o.SellerID,
		Quantity:     o.Quantity,
		QuantityUnit: o.QuantityUnit,
		TotalPrice:   o.TotalPrice,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func toCartItemResponse(c domain.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:        c.ID,
		BuyerID:   c.BuyerID,
		ListingID: c.ListingID,
		Quantity:  c.Quantity,
		UnitPrice: c.UnitPrice,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toRatingResponse(s domain.RatingSummary) ratingResponse {
	return ratingResponse{UserID: s.TargetID, Average: s.Average, Count: s.Count}
}

func toAddressResponse(a domain.Address) addressResponse {
	return addressResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Label:       a.Label,
		AddressLine: a.AddressLine,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
		IsDefault:   a.IsDefault,
		CreatedAt:   a.CreatedAt,
	}
}
