package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const errDuplicateEntry = 1062

const (
	listingColumns = `id, owner_id, crop_name, stock, quantity_unit, unit_price, image_url, location, status, created_at, updated_at`
	offerColumns   = `id, listing_id, buyer_id, seller_id, quantity, unit_price, message, status, created_at, updated_at`
	orderColumns   = `id, offer_id, listing_id, buyer_id, seller_id, quantity, quantity_unit, total_price, status, created_at, updated_at`
	cartColumns    = `id, buyer_id, listing_id, quantity, unit_price, created_at, updated_at`
	addressColumns = `id, user_id, label, address_line, latitude, longitude, is_default, created_at`
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type MySQLAdapter struct {
	db *sql.DB
}

var _ port.DatabaseRepository = (*MySQLAdapter)(nil)

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// WithinTx runs fn at READ COMMITTED. Stock is only ever read through
// LockListing (SELECT ... FOR UPDATE), so concurrent accepts against one
// listing queue on its row lock and each sees the previous commit.
func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &mysqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return getListing(ctx, m.db, id, false)
}

func (m *MySQLAdapter) ListActiveListings(ctx context.Context) ([]domain.Listing, error) {
	return queryListings(ctx, m.db, `
		SELECT `+listingColumns+` FROM listings
		WHERE status = ? ORDER BY created_at DESC, id`, domain.ListingStatusActive)
}

func (m *MySQLAdapter) ListListingsByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return queryListings(ctx, m.db, `
		SELECT `+listingColumns+` FROM listings
		WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
}

func (m *MySQLAdapter) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	return getOffer(ctx, m.db, id, false)
}

func (m *MySQLAdapter) ListOffersByListing(ctx context.Context, listingID string, status domain.OfferStatus) ([]domain.Offer, error) {
	return queryOffers(ctx, m.db, `
		SELECT `+offerColumns+` FROM offers
		WHERE listing_id = ? AND status = ? ORDER BY created_at DESC, id`, listingID, status)
}

func (m *MySQLAdapter) ListOffersBySeller(ctx context.Context, sellerID string, statuses ...domain.OfferStatus) ([]domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE seller_id = ?`
	args := []any{sellerID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY created_at DESC, id`
	return queryOffers(ctx, m.db, query, args...)
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, m.db, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (m *MySQLAdapter) GetOrderByOffer(ctx context.Context, offerID string) (*domain.Order, error) {
	return getOrder(ctx, m.db, `SELECT `+orderColumns+` FROM orders WHERE offer_id = ?`, offerID)
}

func (m *MySQLAdapter) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return queryOrders(ctx, m.db, `
		SELECT `+orderColumns+` FROM orders
		WHERE buyer_id = ? ORDER BY created_at DESC, id`, buyerID)
}

func (m *MySQLAdapter) ListOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	return queryOrders(ctx, m.db, `
		SELECT `+orderColumns+` FROM orders
		WHERE seller_id = ? ORDER BY created_at DESC, id`, sellerID)
}

func (m *MySQLAdapter) ListCartItems(ctx context.Context, buyerID string) ([]domain.CartItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+cartColumns+` FROM cart_items
		WHERE buyer_id = ? ORDER BY created_at DESC, id`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) RatingSummary(ctx context.Context, targetID string) (domain.RatingSummary, error) {
	summary := domain.RatingSummary{TargetID: targetID, Average: domain.DefaultRating}

	var avg sql.NullFloat64
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(score) FROM ratings WHERE target_id = ?`, targetID,
	).Scan(&summary.Count, &avg)
	if err != nil {
		return summary, fmt.Errorf("query rating summary: %w", err)
	}
	if summary.Count > 0 && avg.Valid {
		summary.Average = avg.Float64
	}
	return summary, nil
}

func (m *MySQLAdapter) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+addressColumns+` FROM addresses
		WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addrs []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.AddressLine, &a.Latitude, &a.Longitude,
			&a.IsDefault, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) InsertListing(ctx context.Context, l domain.Listing) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, l.CropName, l.Stock, l.QuantityUnit, l.UnitPrice,
		l.ImageURL, l.Location, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (t *mysqlTx) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return getListing(ctx, t.tx, id, false)
}

func (t *mysqlTx) LockListing(ctx context.Context, id string) (*domain.Listing, error) {
	return getListing(ctx, t.tx, id, true)
}

func (t *mysqlTx) UpdateListingStock(ctx context.Context, l domain.Listing) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE listings
		SET stock = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		l.Stock, l.Status, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update listing stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update listing stock: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update listing stock: listing %s not updated", l.ID)
	}
	return nil
}

func (t *mysqlTx) InsertOffer(ctx context.Context, o domain.Offer) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO offers (`+offerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ListingID, o.BuyerID, o.SellerID, o.Quantity, o.UnitPrice,
		o.Message, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

func (t *mysqlTx) LockOffer(ctx context.Context, id string) (*domain.Offer, error) {
	return getOffer(ctx, t.tx, id, true)
}

func (t *mysqlTx) UpdateOfferStatus(ctx context.Context, id string, status domain.OfferStatus, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE offers SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, at, id, domain.OfferStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update offer status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update offer status: %w", err)
	}
	if rows == 1 {
		return nil
	}

	if _, err := getOffer(ctx, t.tx, id, false); err != nil {
		return err
	}
	return domain.ErrAlreadyResolved
}

func (t *mysqlTx) RejectPendingOffers(ctx context.Context, listingID string, at time.Time) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id FROM offers
		WHERE listing_id = ? AND status = ?
		ORDER BY id FOR UPDATE`,
		listingID, domain.OfferStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("select pending offers: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pending offer: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select pending offers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE offers SET status = ?, updated_at = ?
		WHERE listing_id = ? AND status = ?`,
		domain.OfferStatusRejected, at, listingID, domain.OfferStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("reject pending offers: %w", err)
	}
	return ids, nil
}

func (t *mysqlTx) InsertOrder(ctx context.Context, o domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OfferID, o.ListingID, o.BuyerID, o.SellerID, o.Quantity,
		o.QuantityUnit, o.TotalPrice, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("%w: order for offer %s already exists", domain.ErrAlreadyResolved, o.OfferID)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *mysqlTx) LockOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, t.tx, `SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`, id)
}

func (t *mysqlTx) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, at, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("order %s", id)
	}
	return nil
}

func (t *mysqlTx) UpsertCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO cart_items (`+cartColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			unit_price = VALUES(unit_price),
			updated_at = VALUES(updated_at)`,
		item.ID, item.BuyerID, item.ListingID, item.Quantity, item.UnitPrice,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}

	row := t.tx.QueryRowContext(ctx, `
		SELECT `+cartColumns+` FROM cart_items
		WHERE buyer_id = ? AND listing_id = ?`, item.BuyerID, item.ListingID)
	return scanCartItem(row)
}

func (t *mysqlTx) LockCartItem(ctx context.Context, id string) (*domain.CartItem, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+cartColumns+` FROM cart_items WHERE id = ? FOR UPDATE`, id)
	item, err := scanCartItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("cart item %s", id)
	}
	return item, err
}

func (t *mysqlTx) UpdateCartItemQuantity(ctx context.Context, id string, quantity decimal.Decimal, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?`,
		quantity, at, id,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return requireOneRow(result, "cart item", id)
}

func (t *mysqlTx) DeleteCartItem(ctx context.Context, id string) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return requireOneRow(result, "cart item", id)
}

func (t *mysqlTx) InsertRating(ctx context.Context, r domain.Rating) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO ratings (id, reviewer_id, target_id, score, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ReviewerID, r.TargetID, r.Score, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (t *mysqlTx) InsertAddress(ctx context.Context, a domain.Address) error {
	if a.IsDefault {
		if _, err := t.tx.ExecContext(ctx, `
			UPDATE addresses SET is_default = FALSE
			WHERE user_id = ? AND is_default`, a.UserID); err != nil {
			return fmt.Errorf("clear default address: %w", err)
		}
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Label, a.AddressLine, a.Latitude, a.Longitude, a.IsDefault, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (t *mysqlTx) DeleteAddress(ctx context.Context, userID, id string) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM addresses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return requireOneRow(result, "address", id)
}

func getListing(ctx context.Context, q queryer, id string, forUpdate bool) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	l, err := scanListing(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("listing %s", id)
	}
	return l, err
}

func queryListings(ctx context.Context, q queryer, query string, args ...any) ([]domain.Listing, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func scanListing(s scanner) (*domain.Listing, error) {
	var l domain.Listing
	err := s.Scan(&l.ID, &l.OwnerID, &l.CropName, &l.Stock, &l.QuantityUnit, &l.UnitPrice,
		&l.ImageURL, &l.Location, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return &l, nil
}

func getOffer(ctx context.Context, q queryer, id string, forUpdate bool) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	o, err := scanOffer(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("offer %s", id)
	}
	return o, err
}

func queryOffers(ctx context.Context, q queryer, query string, args ...any) ([]domain.Offer, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

func scanOffer(s scanner) (*domain.Offer, error) {
	var o domain.Offer
	err := s.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Quantity, &o.UnitPrice,
		&o.Message, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan offer: %w", err)
	}
	return &o, nil
}

func getOrder(ctx context.Context, q queryer, query string, arg string) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("order %s", arg)
	}
	return o, err
}

func queryOrders(ctx context.Context, q queryer, query string, args ...any) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	err := s.Scan(&o.ID, &o.OfferID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Quantity,
		&o.QuantityUnit, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func scanCartItem(s scanner) (*domain.CartItem, error) {
	var c domain.CartItem
	err := s.Scan(&c.ID, &c.BuyerID, &c.ListingID, &c.Quantity, &c.UnitPrice, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart item: %w", err)
	}
	return &c, nil
}

func requireOneRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if rows == 0 {
		return domain.NotFoundf("%s %s", kind, id)
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}
