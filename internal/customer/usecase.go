package customer

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/customer/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type UseCase interface {
	CreateCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	UpdateCustomer(ctx context.Context, input *dto.UpdateCustomerInput) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id string) (*model.Customer, error)
}
