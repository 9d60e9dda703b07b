package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id            VARCHAR(36)    NOT NULL PRIMARY KEY,
		owner_id      VARCHAR(64)    NOT NULL,
		crop_name     VARCHAR(255)   NOT NULL,
		stock         DECIMAL(20,3)  NOT NULL,
		quantity_unit VARCHAR(32)    NOT NULL,
		unit_price    DECIMAL(20,2)  NOT NULL,
		image_url     VARCHAR(1024)  NOT NULL DEFAULT '',
		location      VARCHAR(255)   NOT NULL DEFAULT '',
		status        VARCHAR(16)    NOT NULL,
		created_at    DATETIME(6)    NOT NULL,
		updated_at    DATETIME(6)    NOT NULL,
		CONSTRAINT chk_listings_stock CHECK (stock >= 0),
		INDEX idx_listings_owner (owner_id, created_at),
		INDEX idx_listings_status (status, created_at)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS offers (
		id         VARCHAR(36)   NOT NULL PRIMARY KEY,
		listing_id VARCHAR(36)   NOT NULL,
		buyer_id   VARCHAR(64)   NOT NULL,
		seller_id  VARCHAR(64)   NOT NULL,
		quantity   DECIMAL(20,3) NOT NULL,
		unit_price DECIMAL(20,2) NOT NULL,
		message    VARCHAR(512)  NOT NULL DEFAULT '',
		status     VARCHAR(16)   NOT NULL,
		created_at DATETIME(6)   NOT NULL,
		updated_at DATETIME(6)   NOT NULL,
		INDEX idx_offers_listing_status (listing_id, status),
		INDEX idx_offers_seller_status (seller_id, status, created_at),
		CONSTRAINT fk_offers_listing FOREIGN KEY (listing_id) REFERENCES listings (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS orders (
		id            VARCHAR(36)   NOT NULL PRIMARY KEY,
		offer_id      VARCHAR(36)   NOT NULL,
		listing_id    VARCHAR(36)   NOT NULL,
		buyer_id      VARCHAR(64)   NOT NULL,
		seller_id     VARCHAR(64)   NOT NULL,
		quantity      DECIMAL(20,3) NOT NULL,
		quantity_unit VARCHAR(32)   NOT NULL,
		total_price   DECIMAL(24,5) NOT NULL,
		status        VARCHAR(16)   NOT NULL,
		created_at    DATETIME(6)   NOT NULL,
		updated_at    DATETIME(6)   NOT NULL,
		UNIQUE KEY uq_orders_offer (offer_id),
		INDEX idx_orders_buyer (buyer_id, created_at),
		INDEX idx_orders_seller (seller_id, created_at),
		CONSTRAINT fk_orders_offer FOREIGN KEY (offer_id) REFERENCES offers (id),
		CONSTRAINT fk_orders_listing FOREIGN KEY (listing_id) REFERENCES listings (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id         VARCHAR(36)   NOT NULL PRIMARY KEY,
		buyer_id   VARCHAR(64)   NOT NULL,
		listing_id VARCHAR(36)   NOT NULL,
		quantity   DECIMAL(20,3) NOT NULL,
		unit_price DECIMAL(20,2) NOT NULL,
		created_at DATETIME(6)   NOT NULL,
		updated_at DATETIME(6)   NOT NULL,
		UNIQUE KEY uq_cart_buyer_listing (buyer_id, listing_id),
		CONSTRAINT fk_cart_listing FOREIGN KEY (listing_id) REFERENCES listings (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id          VARCHAR(36) NOT NULL PRIMARY KEY,
		reviewer_id VARCHAR(64) NOT NULL,
		target_id   VARCHAR(64) NOT NULL,
		score       TINYINT     NOT NULL,
		created_at  DATETIME(6) NOT NULL,
		INDEX idx_ratings_target (target_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id           VARCHAR(36)  NOT NULL PRIMARY KEY,
		user_id      VARCHAR(64)  NOT NULL,
		label        VARCHAR(64)  NOT NULL DEFAULT '',
		address_line VARCHAR(512) NOT NULL,
		latitude     DOUBLE       NULL,
		longitude    DOUBLE       NULL,
		is_default   BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at   DATETIME(6)  NOT NULL,
		INDEX idx_addresses_user (user_id, created_at)
	) ENGINE=InnoDB`,
}

// Migrate creates the tables the adapter needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
