package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type memoryState struct {
	listings map[string]domain.Listing
	offers   map[string]domain.Offer
	orders   map[string]domain.Order
	cart     map[string]domain.CartItem
	ratings  []domain.Rating
	addrs    map[string]domain.Address
}

func newMemoryState() *memoryState {
	return &memoryState{
		listings: make(map[string]domain.Listing),
		offers:   make(map[string]domain.Offer),
		orders:   make(map[string]domain.Order),
		cart:     make(map[string]domain.CartItem),
		addrs:    make(map[string]domain.Address),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		listings: make(map[string]domain.Listing, len(s.listings)),
		offers:   make(map[string]domain.Offer, len(s.offers)),
		orders:   make(map[string]domain.Order, len(s.orders)),
		cart:     make(map[string]domain.CartItem, len(s.cart)),
		ratings:  append([]domain.Rating(nil), s.ratings...),
		addrs:    make(map[string]domain.Address, len(s.addrs)),
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.addrs {
		c.addrs[k] = v
	}
	return c
}

// MemoryAdapter keeps everything in process. Transactions are fully
// serialised and work on a copy of the state that replaces the committed
// state only when the transaction function succeeds.
type MemoryAdapter struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state *memoryState
}

var _ port.DatabaseRepository = (*MemoryAdapter)(nil)

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{state: newMemoryState()}
}

func (m *MemoryAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	m.mu.RLock()
	work := m.state.clone()
	m.mu.RUnlock()

	if err := fn(ctx, &memoryTx{state: work}); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = work
	m.mu.Unlock()
	return nil
}

func (m *MemoryAdapter) snapshot() *memoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *MemoryAdapter) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, ok := m.snapshot().listings[id]
	if !ok {
		return nil, domain.NotFoundf("listing %s", id)
	}
	return &l, nil
}

func (m *MemoryAdapter) ListActiveListings(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, l := range m.snapshot().listings {
		if l.Status == domain.ListingStatusActive {
			out = append(out, l)
		}
	}
	sortNewest(out, func(l domain.Listing) (time.Time, string) { return l.CreatedAt, l.ID })
	return out, nil
}

func (m *MemoryAdapter) ListListingsByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, l := range m.snapshot().listings {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sortNewest(out, func(l domain.Listing) (time.Time, string) { return l.CreatedAt, l.ID })
	return out, nil
}

func (m *MemoryAdapter) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	o, ok := m.snapshot().offers[id]
	if !ok {
		return nil, domain.NotFoundf("offer %s", id)
	}
	return &o, nil
}

func (m *MemoryAdapter) ListOffersByListing(ctx context.Context, listingID string, status domain.OfferStatus) ([]domain.Offer, error) {
	var out []domain.Offer
	for _, o := range m.snapshot().offers {
		if o.ListingID == listingID && o.Status == status {
			out = append(out, o)
		}
	}
	sortNewest(out, func(o domain.Offer) (time.Time, string) { return o.CreatedAt, o.ID })
	return out, nil
}

func (m *MemoryAdapter) ListOffersBySeller(ctx context.Context, sellerID string, statuses ...domain.OfferStatus) ([]domain.Offer, error) {
	var out []domain.Offer
	for _, o := range m.snapshot().offers {
		if o.SellerID == sellerID && hasStatus(o.Status, statuses) {
			out = append(out, o)
		}
	}
	sortNewest(out, func(o domain.Offer) (time.Time, string) { return o.CreatedAt, o.ID })
	return out, nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := m.snapshot().orders[id]
	if !ok {
		return nil, domain.NotFoundf("order %s", id)
	}
	return &o, nil
}

func (m *MemoryAdapter) GetOrderByOffer(ctx context.Context, offerID string) (*domain.Order, error) {
	for _, o := range m.snapshot().orders {
		if o.OfferID == offerID {
			return &o, nil
		}
	}
	return nil, domain.NotFoundf("order for offer %s", offerID)
}

func (m *MemoryAdapter) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.snapshot().orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	sortNewest(out, func(o domain.Order) (time.Time, string) { return o.CreatedAt, o.ID })
	return out, nil
}

func (m *MemoryAdapter) ListOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.snapshot().orders {
		if o.SellerID == sellerID {
			out = append(out, o)
		}
	}
	sortNewest(out, func(o domain.Order) (time.Time, string) { return o.CreatedAt, o.ID })
	return out, nil
}

func (m *MemoryAdapter) ListCartItems(ctx context.Context, buyerID string) ([]domain.CartItem, error) {
	var out []domain.CartItem
	for _, c := range m.snapshot().cart {
		if c.BuyerID == buyerID {
			out = append(out, c)
		}
	}
	sortNewest(out, func(c domain.CartItem) (time.Time, string) { return c.CreatedAt, c.ID })
	return out, nil
}

func (m *MemoryAdapter) RatingSummary(ctx context.Context, targetID string) (domain.RatingSummary, error) {
	summary := domain.RatingSummary{TargetID: targetID, Average: domain.DefaultRating}
	total := 0
	for _, r := range m.snapshot().ratings {
		if r.TargetID == targetID {
			summary.Count++
			total += r.Score
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}

func (m *MemoryAdapter) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	var out []domain.Address
	for _, a := range m.snapshot().addrs {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortNewest(out, func(a domain.Address) (time.Time, string) { return a.CreatedAt, a.ID })
	return out, nil
}

type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) InsertListing(ctx context.Context, listing domain.Listing) error {
	if _, ok := t.state.listings[listing.ID]; ok {
		return fmt.Errorf("insert listing: duplicate id %s", listing.ID)
	}
	t.state.listings[listing.ID] = listing
	return nil
}

func (t *memoryTx) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, ok := t.state.listings[id]
	if !ok {
		return nil, domain.NotFoundf("listing %s", id)
	}
	return &l, nil
}

// LockListing is a plain read: the whole transaction already holds the store lock.
func (t *memoryTx) LockListing(ctx context.Context, id string) (*domain.Listing, error) {
	return t.GetListing(ctx, id)
}

func (t *memoryTx) UpdateListingStock(ctx context.Context, listing domain.Listing) error {
	current, ok := t.state.listings[listing.ID]
	if !ok {
		return domain.NotFoundf("listing %s", listing.ID)
	}
	if listing.Stock.IsNegative() {
		return fmt.Errorf("update listing %s: negative stock %s", listing.ID, listing.Stock)
	}
	current.Stock = listing.Stock
	current.Status = listing.Status
	current.UpdatedAt = listing.UpdatedAt
	t.state.listings[listing.ID] = current
	return nil
}

func (t *memoryTx) InsertOffer(ctx context.Context, offer domain.Offer) error {
	if _, ok := t.state.offers[offer.ID]; ok {
		return fmt.Errorf("insert offer: duplicate id %s", offer.ID)
	}
	t.state.offers[offer.ID] = offer
	return nil
}

func (t *memoryTx) LockOffer(ctx context.Context, id string) (*domain.Offer, error) {
	o, ok := t.state.offers[id]
	if !ok {
		return nil, domain.NotFoundf("offer %s", id)
	}
	return &o, nil
}

func (t *memoryTx) UpdateOfferStatus(ctx context.Context, id string, status domain.OfferStatus, at time.Time) error {
	o, ok := t.state.offers[id]
	if !ok {
		return domain.NotFoundf("offer %s", id)
	}
	if err := o.Resolve(status, at); err != nil {
		return err
	}
	t.state.offers[id] = o
	return nil
}

func (t *memoryTx) RejectPendingOffers(ctx context.Context, listingID string, at time.Time) ([]string, error) {
	var ids []string
	for id, o := range t.state.offers {
		if o.ListingID != listingID || o.Status != domain.OfferStatusPending {
			continue
		}
		o.Status = domain.OfferStatusRejected
		o.UpdatedAt = at
		t.state.offers[id] = o
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, order domain.Order) error {
	if _, ok := t.state.orders[order.ID]; ok {
		return fmt.Errorf("insert order: duplicate id %s", order.ID)
	}
	for _, existing := range t.state.orders {
		if existing.OfferID == order.OfferID {
			return fmt.Errorf("%w: order for offer %s already exists", domain.ErrAlreadyResolved, order.OfferID)
		}
	}
	t.state.orders[order.ID] = order
	return nil
}

func (t *memoryTx) LockOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := t.state.orders[id]
	if !ok {
		return nil, domain.NotFoundf("order %s", id)
	}
	return &o, nil
}

func (t *memoryTx) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	o, ok := t.state.orders[id]
	if !ok {
		return domain.NotFoundf("order %s", id)
	}
	o.Status = status
	o.UpdatedAt = at
	t.state.orders[id] = o
	return nil
}

func (t *memoryTx) UpsertCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	for id, existing := range t.state.cart {
		if existing.BuyerID == item.BuyerID && existing.ListingID == item.ListingID {
			existing.Quantity = existing.Quantity.Add(item.Quantity)
			existing.UnitPrice = item.UnitPrice
			existing.UpdatedAt = item.UpdatedAt
			t.state.cart[id] = existing
			return &existing, nil
		}
	}
	t.state.cart[item.ID] = item
	return &item, nil
}

func (t *memoryTx) LockCartItem(ctx context.Context, id string) (*domain.CartItem, error) {
	c, ok := t.state.cart[id]
	if !ok {
		return nil, domain.NotFoundf("cart item %s", id)
	}
	return &c, nil
}

func (t *memoryTx) UpdateCartItemQuantity(ctx context.Context, id string, quantity decimal.Decimal, at time.Time) error {
	c, ok := t.state.cart[id]
	if !ok {
		return domain.NotFoundf("cart item %s", id)
	}
	c.Quantity = quantity
	c.UpdatedAt = at
	t.state.cart[id] = c
	return nil
}

func (t *memoryTx) DeleteCartItem(ctx context.Context, id string) error {
	if _, ok := t.state.cart[id]; !ok {
		return domain.NotFoundf("cart item %s", id)
	}
	delete(t.state.cart, id)
	return nil
}

func (t *memoryTx) InsertRating(ctx context.Context, rating domain.Rating) error {
	t.state.ratings = append(t.state.ratings, rating)
	return nil
}

func (t *memoryTx) InsertAddress(ctx context.Context, addr domain.Address) error {
	if _, ok := t.state.addrs[addr.ID]; ok {
		return fmt.Errorf("insert address: duplicate id %s", addr.ID)
	}
	if addr.IsDefault {
		for id, a := range t.state.addrs {
			if a.UserID == addr.UserID && a.IsDefault {
				a.IsDefault = false
				t.state.addrs[id] = a
			}
		}
	}
	t.state.addrs[addr.ID] = addr
	return nil
}

func (t *memoryTx) DeleteAddress(ctx context.Context, userID, id string) error {
	a, ok := t.state.addrs[id]
	if !ok || a.UserID != userID {
		return domain.NotFoundf("address %s", id)
	}
	delete(t.state.addrs, id)
	return nil
}

func sortNewest[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi < idj
	})
}

func hasStatus(status domain.OfferStatus, statuses []domain.OfferStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
