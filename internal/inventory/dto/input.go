package dto

import "github.com/fekuna/omnipos-stock-ledger/internal/model"

type ApplyTransactionInput struct {
	ProductID  string
	CustomerID *string // Nil for anonymous sales and restocks
	Quantity   int64
	Type       model.TransactionType
}
