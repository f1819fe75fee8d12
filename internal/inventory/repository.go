package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type Repository interface {
	// ApplyStock sets the product quantity to newQuantity if it still equals
	// expectedQuantity, and appends txn, as one atomic unit. A quantity mismatch fails
	// with apperror.Conflict and nothing is written. txn.Seq is filled on success.
	ApplyStock(ctx context.Context, productID string, expectedQuantity, newQuantity int64, txn *model.Transaction) (*model.Product, error)
}
