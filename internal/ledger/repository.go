// Package ledger holds the append-only store of stock transactions.
package ledger

import (
	"context"
	"iter"

	"github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type Repository interface {
	// Append assigns the next sequence number to txn and stores it. It only fails on
	// persistence errors; business validation happens before.
	Append(ctx context.Context, txn *model.Transaction) error

	// Iter yields matching transactions in sequence order (or reversed). Each range
	// over the returned sequence runs the query again.
	Iter(ctx context.Context, filter dto.Filter) iter.Seq2[model.Transaction, error]
}
