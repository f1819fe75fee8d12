package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const (
	ProductNameIndex   = "products_live_name_key"
	CustomerEmailIndex = "customers_email_lower_key"
)

// The transactions table rejects UPDATE and DELETE at the rule level so the ledger
// stays append-only even for ad-hoc SQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		category         TEXT NOT NULL DEFAULT '',
		price            NUMERIC(14, 2) NOT NULL CHECK (price >= 0),
		quantity         BIGINT NOT NULL CHECK (quantity >= 0),
		initial_quantity BIGINT NOT NULL CHECK (initial_quantity >= 0),
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		deleted_at       TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + ProductNameIndex + ` ON products (name) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS customers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + CustomerEmailIndex + ` ON customers (lower(email))`,
	`CREATE TABLE IF NOT EXISTS transactions (
		seq         BIGSERIAL PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		product_id  TEXT NOT NULL REFERENCES products (id),
		customer_id TEXT,
		quantity    BIGINT NOT NULL CHECK (quantity > 0),
		type        TEXT NOT NULL CHECK (type IN ('add', 'deduct')),
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_product_idx ON transactions (product_id, seq)`,
	`CREATE INDEX IF NOT EXISTS transactions_type_created_idx ON transactions (type, created_at)`,
	`CREATE OR REPLACE RULE transactions_no_update AS ON UPDATE TO transactions DO INSTEAD NOTHING`,
	`CREATE OR REPLACE RULE transactions_no_delete AS ON DELETE TO transactions DO INSTEAD NOTHING`,
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
