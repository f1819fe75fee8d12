package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	ledgerrepo "github.com/fekuna/omnipos-stock-ledger/internal/ledger/repository"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/jmoiron/sqlx"
)

const casUpdateQuery = `
    UPDATE products
    SET quantity = $1, updated_at = $2
    WHERE id = $3 AND deleted_at IS NULL AND quantity = $4
    RETURNING id, name, description, category, price, quantity, initial_quantity, created_at, updated_at, deleted_at
`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// ApplyStock writes the new quantity and the ledger row in one database transaction.
func (r *PGRepository) ApplyStock(ctx context.Context, productID string, expected, newQuantity int64, txn *model.Transaction) (*model.Product, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 1. Compare-and-swap the cached quantity
	var p model.Product
	err = tx.GetContext(ctx, &p, casUpdateQuery, newQuantity, txn.Timestamp, productID, expected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missReason(ctx, tx, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product quantity: %w", err)
	}

	// 2. Append to the ledger
	if err := ledgerrepo.Insert(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

// missReason tells a vanished product apart from a lost compare-and-swap.
func (r *PGRepository) missReason(ctx context.Context, tx *sqlx.Tx, productID string) error {
	var live bool
	err := tx.GetContext(ctx, &live, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL)`, productID)
	if err != nil {
		return err
	}
	if !live {
		return apperror.New(apperror.NotFound, "product %s not found", productID)
	}
	return apperror.New(apperror.Conflict, "product %s quantity changed concurrently", productID)
}
