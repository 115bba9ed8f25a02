package postgres

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price BIGINT NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL CHECK (stock >= 0),
		category VARCHAR(32) NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL UNIQUE,
		total BIGINT NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_lines (
		id UUID PRIMARY KEY,
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id UUID NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price_snapshot BIGINT NOT NULL CHECK (price_snapshot >= 0),
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cart_lines_cart_id ON cart_lines(cart_id)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL,
		total BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		shipping_address TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_owner_id ON orders(owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id UUID NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price BIGINT NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,
}

func Migrate(ctx context.Context, db DBTX) error {
	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i, err)
		}
	}
	return nil
}
