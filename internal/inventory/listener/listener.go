package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/config"
	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventSaleRecorded  = "SaleRecorded"
	EventStockReceived = "StockReceived"
)

// MessageReader is the part of *kafka.Reader the listener needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

type StockEvent struct {
	EventID   string       `json:"eventId"`
	EventType string       `json:"eventType"`
	Payload   StockPayload `json:"payload"`
}

type StockPayload struct {
	ProductID  string  `json:"productId"`
	CustomerID *string `json:"customerId"`
	Quantity   int64   `json:"quantity"`
}

type StockListener struct {
	reader  MessageReader
	uc      inventory.UseCase
	logger  logger.ZapLogger
	backoff time.Duration
}

func NewStockListener(reader MessageReader, uc inventory.UseCase, log logger.ZapLogger) *StockListener {
	return &StockListener{
		reader:  reader,
		uc:      uc,
		logger:  log,
		backoff: time.Second,
	}
}

// Start consumes until ctx is cancelled, then closes the reader.
func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("starting stock event listener")
	defer func() {
		if err := l.reader.Close(); err != nil {
			l.logger.Warn("failed to close kafka reader", zap.Error(err))
		}
	}()

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("stopping stock event listener")
				return
			}
			l.logger.Error("failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

func (l *StockListener) processMessage(ctx context.Context, value []byte) {
	var event StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal stock event", zap.Error(err))
		return
	}

	var typ model.TransactionType
	switch event.EventType {
	case EventSaleRecorded:
		typ = model.TransactionDeduct
	case EventStockReceived:
		typ = model.TransactionAdd
	default:
		return
	}

	p, err := l.uc.ApplyTransaction(ctx, &dto.ApplyTransactionInput{
		ProductID:  event.Payload.ProductID,
		CustomerID: event.Payload.CustomerID,
		Quantity:   event.Payload.Quantity,
		Type:       typ,
	})
	if err != nil {
		fields := []zap.Field{
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("product_id", event.Payload.ProductID),
			zap.String("kind", string(apperror.KindOf(err))),
			zap.Error(err),
		}
		if apperror.Is(err, apperror.StorageError) {
			l.logger.Error("failed to apply stock event", fields...)
		} else {
			l.logger.Warn("stock event rejected", fields...)
		}
		return
	}

	l.logger.Info("stock event applied",
		zap.String("event_id", event.EventID),
		zap.String("product_id", p.ID),
		zap.Int64("quantity", p.Quantity),
	)
}
