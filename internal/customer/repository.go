package customer

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

// Repository is the customer half of the catalog store. FindByID returns (nil, nil)
// when the customer is absent.
type Repository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindAll(ctx context.Context) ([]model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id string) error

	// Emails compare case-insensitively.
	IsEmailUnique(ctx context.Context, email, excludeID string) (bool, error)
}
