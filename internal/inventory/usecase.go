package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/dto"
	ledgerdto "github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type UseCase interface {
	ApplyTransaction(ctx context.Context, input *dto.ApplyTransactionInput) (*model.Product, error)
	ListTransactions(ctx context.Context, filter ledgerdto.Filter) ([]model.Transaction, error)

	ListLowStock(ctx context.Context) ([]model.Product, error)
	LastRestockDate(ctx context.Context, productID string) (*time.Time, error)
	DailySalesTotals(ctx context.Context, from, to time.Time) ([]dto.DailySales, error)
	TopCustomersBySales(ctx context.Context, n int) ([]dto.CustomerSales, error)
	Summary(ctx context.Context) (*dto.Summary, error)

	Reconcile(ctx context.Context) ([]dto.Drift, error)
}
