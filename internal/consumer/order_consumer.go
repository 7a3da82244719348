package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type SaleRecorder interface {
	RecordSale(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies order.placed events to the catalog sell counts.
type Consumer struct {
	catalog SaleRecorder
	reader  MessageReader
	logger  *zap.Logger

	retryDelay time.Duration
}

func NewConsumer(catalog SaleRecorder, groupID string, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    domain.TopicOrderPlaced,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{catalog: catalog, reader: reader, logger: logger, retryDelay: time.Second}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		return
	}

	// offsets are committed in order, so a failed event is retried before moving on
	for {
		err := c.handle(ctx, m)
		if err == nil {
			break
		}
		c.logger.Error("failed to apply order event",
			zap.Int64("offset", m.Offset),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryDelay):
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Warn("failed to commit message", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}

// handle returns an error only for failures worth retrying.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	if t := eventType(m); t != "" && t != domain.EventTypeOrderPlaced {
		return nil
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Warn("skipping malformed order event", zap.Error(err))
		return nil
	}
	if event.OrderID == uuid.Nil {
		c.logger.Warn("skipping order event without order_id")
		return nil
	}

	err := c.catalog.RecordSale(ctx, event.OrderID, event.Items)
	if errors.Is(err, repository.ErrEventProcessed) {
		c.logger.Debug("order already applied", zap.String("order_id", event.OrderID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("record sale for order %s: %w", event.OrderID, err)
	}

	c.logger.Info("sale recorded",
		zap.String("order_id", event.OrderID.String()),
		zap.Int("items", len(event.Items)))
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
