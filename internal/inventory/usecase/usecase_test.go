package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/dto"
	ledgerdto "github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/memstore"
	"github.com/fekuna/omnipos-stock-ledger/internal/metrics"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memstore.Store
	metrics *metrics.Registry
	uc      *inventoryUseCase
	clock   time.Time
}

func newFixture(t *testing.T, opts ...memstore.Option) *fixture {
	t.Helper()
	store := memstore.New(opts...)
	return newFixtureWithStock(t, store, store.Inventory())
}

func newFixtureWithStock(t *testing.T, store *memstore.Store, stock inventory.Repository) *fixture {
	t.Helper()
	m := metrics.NewRegistry()
	f := &fixture{store: store, metrics: m, clock: baseTime}
	uc := NewInventoryUseCase(
		store.Products(), store.Customers(), store.Ledger(), stock,
		lock.NewKeyedMutex(5*time.Second), m, logger.NewNop(), 3,
	).(*inventoryUseCase)
	uc.now = func() time.Time { return f.clock }
	f.uc = uc
	return f
}

func (f *fixture) addProduct(t *testing.T, id, name string, qty int64) {
	t.Helper()
	require.NoError(t, f.store.Products().Create(context.Background(), &model.Product{
		BaseModel:       model.BaseModel{ID: id, CreatedAt: baseTime, UpdatedAt: baseTime},
		Name:            name,
		Price:           decimal.NewFromInt(3),
		Quantity:        qty,
		InitialQuantity: qty,
	}))
}

func (f *fixture) addCustomer(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.store.Customers().Create(context.Background(), &model.Customer{
		BaseModel: model.BaseModel{ID: id, CreatedAt: baseTime, UpdatedAt: baseTime},
		Name:      name,
		Email:     id + "@example.com",
	}))
}

func (f *fixture) quantity(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (f *fixture) ledgerLen(t *testing.T) int {
	t.Helper()
	txns, err := f.uc.ListTransactions(context.Background(), ledgerdto.Filter{})
	require.NoError(t, err)
	return len(txns)
}

func apply(productID string, typ model.TransactionType, qty int64) *dto.ApplyTransactionInput {
	return &dto.ApplyTransactionInput{ProductID: productID, Quantity: qty, Type: typ}
}

func assertLedgerMatchesStock(t *testing.T, f *fixture) {
	t.Helper()
	drifts, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestApplyTransaction_CoffeeScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "coffee", "Coffee", 5)

	p, err := f.uc.ApplyTransaction(ctx, apply("coffee", model.TransactionDeduct, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Quantity)
	assert.Equal(t, 1, f.ledgerLen(t))

	_, err = f.uc.ApplyTransaction(ctx, apply("coffee", model.TransactionDeduct, 5))
	require.Error(t, err)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))
	assert.Equal(t, int64(2), f.quantity(t, "coffee"))
	assert.Equal(t, 1, f.ledgerLen(t))

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TxApplied.WithLabelValues("deduct")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TxRejected.WithLabelValues("InsufficientStock")))
	assertLedgerMatchesStock(t, f)
}

func TestApplyTransaction_RestockSetsLastRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "p1", "Beans", 2)

	last, err := f.uc.LastRestockDate(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, last)

	f.clock = baseTime.Add(time.Hour)
	p, err := f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionAdd, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.Quantity)

	last, err = f.uc.LastRestockDate(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(baseTime.Add(time.Hour)))
	assertLedgerMatchesStock(t, f)
}

func TestApplyTransaction_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "p1", "Milk", 4)
	ghost := "nobody"

	tests := []struct {
		name  string
		input *dto.ApplyTransactionInput
		kind  apperror.Kind
	}{
		{"zero quantity", apply("p1", model.TransactionAdd, 0), apperror.InvalidValue},
		{"negative quantity", apply("p1", model.TransactionDeduct, -2), apperror.InvalidValue},
		{"bad type", apply("p1", model.TransactionType("refund"), 1), apperror.InvalidValue},
		{"missing product id", apply("", model.TransactionAdd, 1), apperror.InvalidValue},
		{"unknown product", apply("p404", model.TransactionAdd, 1), apperror.NotFound},
		{"unknown customer", &dto.ApplyTransactionInput{
			ProductID: "p1", CustomerID: &ghost, Quantity: 1, Type: model.TransactionDeduct,
		}, apperror.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.ApplyTransaction(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	assert.Equal(t, int64(4), f.quantity(t, "p1"))
	assert.Equal(t, 0, f.ledgerLen(t))
}

func TestApplyTransaction_RestockOverflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "coffee", "Coffee", 5)

	_, err := f.uc.ApplyTransaction(ctx, apply("coffee", model.TransactionAdd, math.MaxInt64))
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidValue, apperror.KindOf(err))
	assert.Equal(t, int64(5), f.quantity(t, "coffee"))
	assert.Equal(t, 0, f.ledgerLen(t))

	// Largest restock that still fits.
	p, err := f.uc.ApplyTransaction(ctx, apply("coffee", model.TransactionAdd, math.MaxInt64-5))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), p.Quantity)

	_, err = f.uc.ApplyTransaction(ctx, apply("coffee", model.TransactionAdd, 1))
	assert.True(t, apperror.Is(err, apperror.InvalidValue))
	assert.Equal(t, 1, f.ledgerLen(t))
}

func TestApplyTransaction_EmptyCustomerIsAnonymous(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "Milk", 4)
	empty := "  "

	_, err := f.uc.ApplyTransaction(context.Background(), &dto.ApplyTransactionInput{
		ProductID: "p1", CustomerID: &empty, Quantity: 1, Type: model.TransactionDeduct,
	})
	require.NoError(t, err)

	txns, err := f.uc.ListTransactions(context.Background(), ledgerdto.Filter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Nil(t, txns[0].CustomerID)
}

func TestApplyTransaction_DeletedProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "p1", "Milk", 4)
	require.NoError(t, f.store.Products().SoftDelete(ctx, "p1", baseTime))

	_, err := f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionAdd, 1))
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestApplyTransaction_ConcurrentDeducts(t *testing.T) {
	const (
		stock   = 20
		callers = 50
	)
	f := newFixture(t)
	f.addProduct(t, "p1", "Bagel", stock)

	var (
		wg           sync.WaitGroup
		ok, shortage atomic.Int64
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.uc.ApplyTransaction(context.Background(), apply("p1", model.TransactionDeduct, 1))
			switch {
			case err == nil:
				ok.Add(1)
			case apperror.Is(err, apperror.InsufficientStock):
				shortage.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(stock), ok.Load())
	assert.Equal(t, int64(callers-stock), shortage.Load())
	assert.Equal(t, int64(0), f.quantity(t, "p1"))
	assert.Equal(t, stock, f.ledgerLen(t))
	assertLedgerMatchesStock(t, f)
}

func TestApplyTransaction_ParallelProducts(t *testing.T) {
	f := newFixture(t)
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		f.addProduct(t, id, "Item "+id, 0)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := f.uc.ApplyTransaction(context.Background(), apply(id, model.TransactionAdd, 2))
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, int64(50), f.quantity(t, id))
	}
	assertLedgerMatchesStock(t, f)
}

func TestApplyTransaction_LedgerFaultLeavesNothing(t *testing.T) {
	ctx := context.Background()
	var fail atomic.Bool
	f := newFixture(t, memstore.WithLedgerFault(func(*model.Transaction) error {
		if fail.Load() {
			return errors.New("disk full")
		}
		return nil
	}))
	f.addProduct(t, "p1", "Jam", 7)

	_, err := f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionDeduct, 2))
	require.NoError(t, err)

	fail.Store(true)
	_, err = f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionDeduct, 2))
	require.Error(t, err)
	assert.Equal(t, apperror.StorageError, apperror.KindOf(err))
	assert.Equal(t, int64(5), f.quantity(t, "p1"))
	assert.Equal(t, 1, f.ledgerLen(t))

	fail.Store(false)
	assertLedgerMatchesStock(t, f)
}

// racyStock loses the compare-and-swap a fixed number of times before delegating.
type racyStock struct {
	inventory.Repository
	losses atomic.Int32
}

func (r *racyStock) ApplyStock(ctx context.Context, productID string, expected, next int64, txn *model.Transaction) (*model.Product, error) {
	if r.losses.Add(-1) >= 0 {
		return nil, apperror.New(apperror.Conflict, "quantity changed")
	}
	return r.Repository.ApplyStock(ctx, productID, expected, next, txn)
}

func TestApplyTransaction_ConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers within budget", func(t *testing.T) {
		store := memstore.New()
		racy := &racyStock{Repository: store.Inventory()}
		racy.losses.Store(2)
		f := newFixtureWithStock(t, store, racy)
		f.addProduct(t, "p1", "Salt", 3)

		p, err := f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionDeduct, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.Quantity)
		assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.CASRetries))
	})

	t.Run("surfaces conflict when exhausted", func(t *testing.T) {
		store := memstore.New()
		racy := &racyStock{Repository: store.Inventory()}
		racy.losses.Store(10)
		f := newFixtureWithStock(t, store, racy)
		f.addProduct(t, "p1", "Salt", 3)

		_, err := f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionDeduct, 1))
		require.Error(t, err)
		assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
		assert.Equal(t, int64(3), f.quantity(t, "p1"))
		assert.Equal(t, 0, f.ledgerLen(t))
	})
}

func TestListTransactions_Filters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "p1", "Tea", 10)
	f.addProduct(t, "p2", "Cocoa", 10)
	f.addCustomer(t, "c1", "Ana")
	c1 := "c1"

	_, err := f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionAdd, 1))
	require.NoError(t, err)
	_, err = f.uc.ApplyTransaction(ctx, &dto.ApplyTransactionInput{ProductID: "p2", CustomerID: &c1, Quantity: 2, Type: model.TransactionDeduct})
	require.NoError(t, err)
	_, err = f.uc.ApplyTransaction(ctx, apply("p1", model.TransactionDeduct, 3))
	require.NoError(t, err)

	all, err := f.uc.ListTransactions(ctx, ledgerdto.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].Seq, all[1].Seq, all[2].Seq})

	rev, err := f.uc.ListTransactions(ctx, ledgerdto.Filter{Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rev[0].Seq)

	byProduct, err := f.uc.ListTransactions(ctx, ledgerdto.Filter{ProductID: "p1"})
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	byCustomer, err := f.uc.ListTransactions(ctx, ledgerdto.Filter{CustomerID: "c1"})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, "p2", byCustomer[0].ProductID)

	deducts, err := f.uc.ListTransactions(ctx, ledgerdto.Filter{Type: model.TransactionDeduct})
	require.NoError(t, err)
	assert.Len(t, deducts, 2)
}
