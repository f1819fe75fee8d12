package memstore

import (
	"context"
	"iter"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type LedgerRepository struct {
	s *Store
}

func (r *LedgerRepository) Append(ctx context.Context, txn *model.Transaction) error {
	r.s.ledgerMu.Lock()
	defer r.s.ledgerMu.Unlock()
	return r.s.appendLocked(txn)
}

func (r *LedgerRepository) Iter(ctx context.Context, f dto.Filter) iter.Seq2[model.Transaction, error] {
	return func(yield func(model.Transaction, error) bool) {
		// Appends only ever grow the slice, so a bounded view is a stable snapshot.
		r.s.ledgerMu.RLock()
		snapshot := r.s.txns[:len(r.s.txns):len(r.s.txns)]
		r.s.ledgerMu.RUnlock()

		n := len(snapshot)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				yield(model.Transaction{}, apperror.Storage(err, "ledger scan interrupted"))
				return
			}
			idx := i
			if f.Reverse {
				idx = n - 1 - i
			}
			t := snapshot[idx]
			if !f.Match(&t) {
				continue
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (s *Store) appendLocked(txn *model.Transaction) error {
	if s.ledgerFault != nil {
		if err := s.ledgerFault(txn); err != nil {
			return apperror.Storage(err, "failed to append transaction")
		}
	}
	s.seq++
	txn.Seq = s.seq
	s.txns = append(s.txns, *txn)
	return nil
}
