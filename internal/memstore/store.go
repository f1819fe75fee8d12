// Package memstore is the in-process, single-node backend. One Store holds the
// catalog and the ledger so that a stock movement can update both atomically.
package memstore

import (
	"sync"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type Store struct {
	// Lock order is catalogMu then ledgerMu.
	catalogMu sync.RWMutex
	products  map[string]model.Product
	customers map[string]model.Customer
	// Insertion order for stable listings.
	productOrder  []string
	customerOrder []string

	ledgerMu sync.RWMutex
	txns     []model.Transaction
	seq      int64

	ledgerFault func(txn *model.Transaction) error
}

type Option func(*Store)

// WithLedgerFault installs a hook run before every ledger append. A non-nil return
// aborts the append as a storage failure.
func WithLedgerFault(fn func(txn *model.Transaction) error) Option {
	return func(s *Store) { s.ledgerFault = fn }
}

func New(opts ...Option) *Store {
	s := &Store{
		products:  make(map[string]model.Product),
		customers: make(map[string]model.Customer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Products() *ProductRepository    { return &ProductRepository{s: s} }
func (s *Store) Customers() *CustomerRepository  { return &CustomerRepository{s: s} }
func (s *Store) Ledger() *LedgerRepository       { return &LedgerRepository{s: s} }
func (s *Store) Inventory() *InventoryRepository { return &InventoryRepository{s: s} }
