package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/dto"
	ledgerdto "github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	productdto "github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"go.uber.org/zap"
)

const (
	day          = 24 * time.Hour
	maxRangeDays = 366
)

func (uc *inventoryUseCase) ListLowStock(ctx context.Context) ([]model.Product, error) {
	products, err := uc.products.FindAll(ctx, &productdto.ProductFilters{LowStock: true})
	if err != nil {
		return nil, apperror.Storage(err, "failed to list products")
	}
	return products, nil
}

// LastRestockDate returns the timestamp of the newest add for the product, or nil
// when it was never restocked. Equal timestamps resolve to the later ledger entry.
func (uc *inventoryUseCase) LastRestockDate(ctx context.Context, productID string) (*time.Time, error) {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, apperror.Storage(err, "failed to load product")
	}
	if p == nil {
		return nil, apperror.New(apperror.NotFound, "product not found")
	}

	var (
		best  model.Transaction
		found bool
	)
	filter := ledgerdto.Filter{ProductID: productID, Type: model.TransactionAdd}
	for txn, err := range uc.ledger.Iter(ctx, filter) {
		if err != nil {
			return nil, apperror.Storage(err, "failed to read ledger")
		}
		if !found || txn.Timestamp.After(best.Timestamp) ||
			(txn.Timestamp.Equal(best.Timestamp) && txn.Seq > best.Seq) {
			best, found = txn, true
		}
	}
	if !found {
		return nil, nil
	}
	ts := best.Timestamp.UTC()
	return &ts, nil
}

// DailySalesTotals sums deducted quantity per UTC calendar day over [from, to],
// both inclusive. Days without sales are reported as zero.
func (uc *inventoryUseCase) DailySalesTotals(ctx context.Context, from, to time.Time) ([]dto.DailySales, error) {
	start, end := truncateDay(from), truncateDay(to)
	if end.Before(start) {
		return nil, apperror.New(apperror.InvalidValue, "range end is before range start")
	}
	days := int(end.Sub(start)/day) + 1
	if days > maxRangeDays {
		return nil, apperror.New(apperror.InvalidValue, "range spans %d days, at most %d allowed", days, maxRangeDays)
	}

	totals := make([]int64, days)
	for txn, err := range uc.ledger.Iter(ctx, ledgerdto.Filter{Type: model.TransactionDeduct}) {
		if err != nil {
			return nil, apperror.Storage(err, "failed to read ledger")
		}
		d := truncateDay(txn.Timestamp)
		if d.Before(start) || d.After(end) {
			continue
		}
		totals[int(d.Sub(start)/day)] += txn.Quantity
	}

	out := make([]dto.DailySales, days)
	for i := range totals {
		out[i] = dto.DailySales{
			Date:     start.AddDate(0, 0, i).Format(time.DateOnly),
			Quantity: totals[i],
		}
	}
	return out, nil
}

// TopCustomersBySales ranks the current customers by the number of deduct
// transactions they made. Customers without sales rank with a zero count and
// sales by since-deleted customers are not reported. Ties go to the lower id.
func (uc *inventoryUseCase) TopCustomersBySales(ctx context.Context, n int) ([]dto.CustomerSales, error) {
	if n <= 0 {
		return nil, apperror.New(apperror.InvalidValue, "limit must be positive")
	}

	customers, err := uc.customers.FindAll(ctx)
	if err != nil {
		return nil, apperror.Storage(err, "failed to list customers")
	}
	counts := make(map[string]*dto.CustomerSales, len(customers))
	ranked := make([]dto.CustomerSales, len(customers))
	for i, c := range customers {
		ranked[i] = dto.CustomerSales{CustomerID: c.ID, Name: c.Name}
		counts[c.ID] = &ranked[i]
	}

	for txn, err := range uc.ledger.Iter(ctx, ledgerdto.Filter{Type: model.TransactionDeduct}) {
		if err != nil {
			return nil, apperror.Storage(err, "failed to read ledger")
		}
		if txn.CustomerID == nil {
			continue
		}
		if cs, ok := counts[*txn.CustomerID]; ok {
			cs.SalesCount++
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SalesCount != ranked[j].SalesCount {
			return ranked[i].SalesCount > ranked[j].SalesCount
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// Summary counts live products, low-stock products and recorded sales.
func (uc *inventoryUseCase) Summary(ctx context.Context) (*dto.Summary, error) {
	products, err := uc.products.FindAll(ctx, &productdto.ProductFilters{})
	if err != nil {
		return nil, apperror.Storage(err, "failed to list products")
	}
	summary := &dto.Summary{TotalProducts: len(products)}
	for i := range products {
		if products[i].IsLowStock() {
			summary.LowStockCount++
		}
	}

	for _, err := range uc.ledger.Iter(ctx, ledgerdto.Filter{Type: model.TransactionDeduct}) {
		if err != nil {
			return nil, apperror.Storage(err, "failed to read ledger")
		}
		summary.TotalSales++
	}
	return summary, nil
}

// Reconcile replays each live product's ledger and reports products whose stored
// quantity disagrees. Each product is checked under its stock lock so that an
// in-flight movement is never half counted.
func (uc *inventoryUseCase) Reconcile(ctx context.Context) ([]dto.Drift, error) {
	products, err := uc.products.FindAll(ctx, &productdto.ProductFilters{})
	if err != nil {
		return nil, apperror.Storage(err, "failed to list products")
	}

	drifts := make([]dto.Drift, 0)
	for _, listed := range products {
		d, err := uc.reconcileOne(ctx, listed.ID)
		if err != nil {
			return nil, err
		}
		if d != nil {
			drifts = append(drifts, *d)
			uc.logger.Warn("stock drift detected",
				zap.String("product_id", d.ProductID),
				zap.Int64("recorded", d.RecordedQuantity),
				zap.Int64("replayed", d.ReplayedQuantity),
			)
		}
	}

	uc.metrics.DriftedSKUs.Set(float64(len(drifts)))
	return drifts, nil
}

func (uc *inventoryUseCase) reconcileOne(ctx context.Context, productID string) (*dto.Drift, error) {
	release, err := uc.locker.Acquire(ctx, lock.Key(productID))
	if err != nil {
		return nil, apperror.Storage(err, "failed to acquire stock lock")
	}
	defer release()

	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, apperror.Storage(err, "failed to load product")
	}
	if p == nil {
		// Deleted since it was listed.
		return nil, nil
	}

	replayed := p.InitialQuantity
	for txn, err := range uc.ledger.Iter(ctx, ledgerdto.Filter{ProductID: productID}) {
		if err != nil {
			return nil, apperror.Storage(err, "failed to read ledger")
		}
		replayed += txn.Delta()
	}
	if replayed == p.Quantity {
		return nil, nil
	}
	return &dto.Drift{
		ProductID:        p.ID,
		Name:             p.Name,
		RecordedQuantity: p.Quantity,
		ReplayedQuantity: replayed,
	}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
