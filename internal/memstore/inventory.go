package memstore

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type InventoryRepository struct {
	s *Store
}

func (r *InventoryRepository) ApplyStock(ctx context.Context, productID string, expected, newQuantity int64, txn *model.Transaction) (*model.Product, error) {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()
	r.s.ledgerMu.Lock()
	defer r.s.ledgerMu.Unlock()

	p, ok := r.s.products[productID]
	if !ok || p.IsDeleted() {
		return nil, apperror.New(apperror.NotFound, "product %s not found", productID)
	}
	if p.Quantity != expected {
		return nil, apperror.New(apperror.Conflict, "product %s quantity changed concurrently", productID)
	}

	before := p
	p.Quantity = newQuantity
	p.UpdatedAt = txn.Timestamp
	r.s.products[productID] = p

	if err := r.s.appendLocked(txn); err != nil {
		r.s.products[productID] = before
		return nil, err
	}
	return &p, nil
}
