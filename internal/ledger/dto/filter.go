package dto

import "github.com/fekuna/omnipos-stock-ledger/internal/model"

type Filter struct {
	ProductID  string
	CustomerID string
	Type       model.TransactionType
	Reverse    bool // Newest first
}

func (f Filter) Match(t *model.Transaction) bool {
	if f.ProductID != "" && t.ProductID != f.ProductID {
		return false
	}
	if f.CustomerID != "" && (t.CustomerID == nil || *t.CustomerID != f.CustomerID) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}
