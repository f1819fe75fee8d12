package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
)

// Repository is the product half of the catalog store. Lookups never return
// tombstoned products; FindByID returns (nil, nil) when the product is absent.
type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error)

	// Update writes descriptive fields and price. Quantity is never touched here.
	Update(ctx context.Context, product *model.Product) error
	SoftDelete(ctx context.Context, id string, at time.Time) error

	IsNameUnique(ctx context.Context, name, excludeID string) (bool, error)
}
