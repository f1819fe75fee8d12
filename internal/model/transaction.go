package model

import "time"

type TransactionType string

const (
	TransactionAdd    TransactionType = "add"
	TransactionDeduct TransactionType = "deduct"
)

func (t TransactionType) Valid() bool {
	return t == TransactionAdd || t == TransactionDeduct
}

// Transaction is an immutable ledger entry. Seq is assigned by the ledger on append
// and strictly increases in append order.
type Transaction struct {
	ID         string          `db:"id" json:"id"`
	Seq        int64           `db:"seq" json:"seq"`
	ProductID  string          `db:"product_id" json:"productId"`
	CustomerID *string         `db:"customer_id" json:"customerId"` // Nullable, anonymous sale or restock
	Quantity   int64           `db:"quantity" json:"quantity"`
	Type       TransactionType `db:"type" json:"type"`
	Timestamp  time.Time       `db:"created_at" json:"timestamp"`
}

// Delta is the signed effect of the transaction on the product quantity.
func (t *Transaction) Delta() int64 {
	if t.Type == TransactionDeduct {
		return -t.Quantity
	}
	return t.Quantity
}
