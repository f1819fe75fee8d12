package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/usecase"
	ledgerdto "github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/memstore"
	"github.com/fekuna/omnipos-stock-ledger/internal/metrics"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader hands out queued messages, then blocks until the context ends.
type fakeReader struct {
	mu     sync.Mutex
	queue  []kafka.Message
	errs   []error
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) drained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) == 0 && len(r.errs) == 0
}

func TestStockListener(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Products().Create(ctx, &model.Product{
		BaseModel: model.BaseModel{ID: "p1"}, Name: "Flour", Quantity: 4, InitialQuantity: 4,
	}))
	uc := usecase.NewInventoryUseCase(
		store.Products(), store.Customers(), store.Ledger(), store.Inventory(),
		lock.NewKeyedMutex(time.Second), metrics.NewRegistry(), logger.NewNop(), 3,
	)

	reader := &fakeReader{
		errs: []error{errors.New("broker unavailable")},
		queue: []kafka.Message{
			{Value: []byte(`{"eventId":"e1","eventType":"StockReceived","payload":{"productId":"p1","quantity":6}}`)},
			{Value: []byte(`{"eventId":"e2","eventType":"SaleRecorded","payload":{"productId":"p1","quantity":3}}`)},
			{Value: []byte(`not json`)},
			{Value: []byte(`{"eventId":"e3","eventType":"PriceChanged","payload":{"productId":"p1","quantity":1}}`)},
			{Value: []byte(`{"eventId":"e4","eventType":"SaleRecorded","payload":{"productId":"p1","quantity":50}}`)},
			{Value: []byte(`{"eventId":"e5","eventType":"SaleRecorded","payload":{"productId":"p1","quantity":1}}`)},
		},
	}
	l := NewStockListener(reader, uc, logger.NewNop())
	l.backoff = time.Millisecond

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		l.Start(runCtx)
		close(done)
	}()

	require.Eventually(t, reader.drained, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		p, _ := store.Products().FindByID(ctx, "p1")
		return p != nil && p.Quantity == 6
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, reader.closed)

	var types []model.TransactionType
	for txn, err := range store.Ledger().Iter(ctx, ledgerdto.Filter{ProductID: "p1"}) {
		require.NoError(t, err)
		types = append(types, txn.Type)
	}
	assert.Equal(t, []model.TransactionType{model.TransactionAdd, model.TransactionDeduct, model.TransactionDeduct}, types)
}
