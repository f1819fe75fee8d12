package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Quantity    int64
}

// UpdateProductInput merges onto the stored product; nil fields are left as they are.
type UpdateProductInput struct {
	ID          string
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
}
