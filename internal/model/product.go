package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the quantity below which a product is reported as low on stock.
const LowStockThreshold = 10

type Product struct {
	BaseModel
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Category        string          `db:"category" json:"category"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Quantity        int64           `db:"quantity" json:"quantity"`
	InitialQuantity int64           `db:"initial_quantity" json:"initialQuantity"`
	DeletedAt       *time.Time      `db:"deleted_at" json:"deletedAt,omitempty"` // Tombstone
}

func (p *Product) IsLowStock() bool {
	return p.Quantity < LowStockThreshold
}

func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}
