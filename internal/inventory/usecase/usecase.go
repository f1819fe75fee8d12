package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/customer"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/metrics"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	products  product.Repository
	customers customer.Repository
	ledger    ledger.Repository
	stock     inventory.Repository
	locker    lock.Locker
	metrics   *metrics.Registry
	logger    logger.ZapLogger

	applyRetries int
	now          func() time.Time
}

// NewInventoryUseCase builds the consistency engine. applyRetries bounds how many
// times a stock movement is re-read and re-applied after losing a compare-and-swap.
func NewInventoryUseCase(
	products product.Repository,
	customers customer.Repository,
	ledgerRepo ledger.Repository,
	stock inventory.Repository,
	locker lock.Locker,
	m *metrics.Registry,
	log logger.ZapLogger,
	applyRetries int,
) inventory.UseCase {
	if applyRetries < 1 {
		applyRetries = 1
	}
	return &inventoryUseCase{
		products:     products,
		customers:    customers,
		ledger:       ledgerRepo,
		stock:        stock,
		locker:       locker,
		metrics:      m,
		logger:       log,
		applyRetries: applyRetries,
		now:          time.Now,
	}
}

func (uc *inventoryUseCase) ApplyTransaction(ctx context.Context, input *dto.ApplyTransactionInput) (*model.Product, error) {
	start := time.Now()
	p, err := uc.apply(ctx, input)
	uc.metrics.TxLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := apperror.KindOf(err)
		uc.metrics.TxRejected.WithLabelValues(string(kind)).Inc()
		if kind == apperror.StorageError {
			uc.logger.Error("failed to apply transaction",
				zap.String("product_id", input.ProductID),
				zap.String("type", string(input.Type)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	uc.metrics.TxApplied.WithLabelValues(string(input.Type)).Inc()
	return p, nil
}

func (uc *inventoryUseCase) apply(ctx context.Context, input *dto.ApplyTransactionInput) (*model.Product, error) {
	if input.Quantity <= 0 {
		return nil, apperror.New(apperror.InvalidValue, "quantity must be a positive integer")
	}
	if !input.Type.Valid() {
		return nil, apperror.New(apperror.InvalidValue, "transaction type must be add or deduct")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, apperror.New(apperror.InvalidValue, "product id is required")
	}

	var customerID *string
	if input.CustomerID != nil {
		if id := strings.TrimSpace(*input.CustomerID); id != "" {
			customerID = &id
		}
	}

	for attempt := 1; ; attempt++ {
		release, err := uc.locker.Acquire(ctx, lock.Key(input.ProductID))
		if err != nil {
			return nil, apperror.Storage(err, "failed to acquire stock lock")
		}

		p, err := uc.applyLocked(ctx, input, customerID)
		release()

		if err == nil {
			return p, nil
		}
		if !apperror.Is(err, apperror.Conflict) || attempt >= uc.applyRetries {
			return nil, err
		}

		uc.metrics.CASRetries.Inc()
		uc.logger.Debug("stock changed underneath, retrying",
			zap.String("product_id", input.ProductID),
			zap.Int("attempt", attempt),
		)
	}
}

// applyLocked runs one read-validate-write cycle. The caller holds the product lock.
func (uc *inventoryUseCase) applyLocked(ctx context.Context, input *dto.ApplyTransactionInput, customerID *string) (*model.Product, error) {
	p, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, apperror.Storage(err, "failed to load product")
	}
	if p == nil {
		return nil, apperror.New(apperror.NotFound, "product not found")
	}

	if customerID != nil {
		c, err := uc.customers.FindByID(ctx, *customerID)
		if err != nil {
			return nil, apperror.Storage(err, "failed to load customer")
		}
		if c == nil {
			return nil, apperror.New(apperror.NotFound, "customer not found")
		}
	}

	txn := &model.Transaction{
		ID:         uuid.New().String(),
		ProductID:  p.ID,
		CustomerID: customerID,
		Quantity:   input.Quantity,
		Type:       input.Type,
		Timestamp:  uc.now().UTC(),
	}

	if txn.Type == model.TransactionAdd && input.Quantity > math.MaxInt64-p.Quantity {
		return nil, apperror.New(apperror.InvalidValue,
			"restock of %d would overflow the stock of %s", input.Quantity, p.Name)
	}
	next := p.Quantity + txn.Delta()
	if next < 0 {
		return nil, apperror.New(apperror.InsufficientStock,
			"insufficient stock for %s: have %d, need %d", p.Name, p.Quantity, input.Quantity)
	}

	updated, err := uc.stock.ApplyStock(ctx, p.ID, p.Quantity, next, txn)
	if err != nil {
		return nil, apperror.Storage(err, "failed to apply stock movement")
	}

	uc.logger.Info("stock transaction applied",
		zap.String("transaction_id", txn.ID),
		zap.Int64("seq", txn.Seq),
		zap.String("product_id", p.ID),
		zap.String("type", string(txn.Type)),
		zap.Int64("quantity", txn.Quantity),
		zap.Int64("quantity_before", p.Quantity),
		zap.Int64("quantity_after", updated.Quantity),
	)
	return updated, nil
}

func (uc *inventoryUseCase) ListTransactions(ctx context.Context, filter ledgerdto.Filter) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0)
	for txn, err := range uc.ledger.Iter(ctx, filter) {
		if err != nil {
			return nil, apperror.Storage(err, "failed to read ledger")
		}
		txns = append(txns, txn)
	}
	return txns, nil
}
