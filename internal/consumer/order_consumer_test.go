package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type mockRecorder struct {
	m       sync.Mutex
	applied map[uuid.UUID][]domain.OrderItem
	fails   int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{applied: make(map[uuid.UUID][]domain.OrderItem)}
}

func (r *mockRecorder) RecordSale(_ context.Context, orderID uuid.UUID, items []domain.OrderItem) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("database is locked")
	}
	if _, ok := r.applied[orderID]; ok {
		return repository.ErrEventProcessed
	}
	r.applied[orderID] = items
	return nil
}

func (r *mockRecorder) count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.applied)
}

type mockReader struct {
	messages  []kafkaGo.Message
	committed []kafkaGo.Message
}

func (r *mockReader) FetchMessage(ctx context.Context) (kafkaGo.Message, error) {
	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafkaGo.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *mockReader) CommitMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *mockReader) Close() error { return nil }

func orderMessage(t *testing.T, orderID uuid.UUID, offset int64) kafkaGo.Message {
	event := domain.OrderPlacedEvent{
		OrderID:     orderID,
		CheckoutID:  uuid.New(),
		UserID:      "token-1",
		Items:       []domain.OrderItem{{ProductID: 5, ProductName: "Wool Coat", Quantity: 2, UnitPrice: decimal.RequireFromString("189.00")}},
		TotalAmount: decimal.RequireFromString("378.00"),
		PlacedAt:    time.Now(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkaGo.Message{
		Offset:  offset,
		Key:     []byte(orderID.String()),
		Value:   payload,
		Headers: []kafkaGo.Header{{Key: "event_type", Value: []byte(domain.EventTypeOrderPlaced)}},
	}
}

func newTestConsumer(rec SaleRecorder, reader MessageReader) *Consumer {
	return &Consumer{catalog: rec, reader: reader, logger: zap.NewNop(), retryDelay: time.Millisecond}
}

func TestProcessMessage_RecordsSaleAndCommits(t *testing.T) {
	orderID := uuid.New()
	rec := newMockRecorder()
	reader := &mockReader{messages: []kafkaGo.Message{orderMessage(t, orderID, 1)}}

	newTestConsumer(rec, reader).processMessage(context.Background())

	assert.Check(t, is.Len(rec.applied[orderID], 1))
	assert.Equal(t, rec.applied[orderID][0].Quantity, 2)
	assert.Check(t, is.Len(reader.committed, 1))
}

func TestProcessMessage_DuplicateIsCommitted(t *testing.T) {
	orderID := uuid.New()
	rec := newMockRecorder()
	reader := &mockReader{messages: []kafkaGo.Message{
		orderMessage(t, orderID, 1),
		orderMessage(t, orderID, 2),
	}}
	c := newTestConsumer(rec, reader)

	c.processMessage(context.Background())
	c.processMessage(context.Background())

	assert.Equal(t, rec.count(), 1)
	assert.Check(t, is.Len(reader.committed, 2))
}

func TestProcessMessage_RetriesFailedSale(t *testing.T) {
	orderID := uuid.New()
	rec := newMockRecorder()
	rec.fails = 2
	reader := &mockReader{messages: []kafkaGo.Message{orderMessage(t, orderID, 1)}}

	newTestConsumer(rec, reader).processMessage(context.Background())

	assert.Equal(t, rec.count(), 1)
	assert.Check(t, is.Len(reader.committed, 1))
}

func TestProcessMessage_SkipsMalformedAndForeignEvents(t *testing.T) {
	rec := newMockRecorder()
	reader := &mockReader{messages: []kafkaGo.Message{
		{Offset: 1, Value: []byte("{not json")},
		{Offset: 2, Value: []byte(`{"user_id":"token-1"}`)},
		{Offset: 3, Value: []byte(`{}`), Headers: []kafkaGo.Header{{Key: "event_type", Value: []byte("order.shipped")}}},
	}}
	c := newTestConsumer(rec, reader)

	for i := 0; i < 3; i++ {
		c.processMessage(context.Background())
	}

	assert.Equal(t, rec.count(), 0)
	assert.Check(t, is.Len(reader.committed, 3))
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := newTestConsumer(newMockRecorder(), &mockReader{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestConsumer_UpdatesCatalogFromKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := repository.NewProductRepository(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer catalog.Close()

	brokers, cleanupKafka := setupKafka(t)
	defer cleanupKafka()
	createTopic(t, brokers, domain.TopicOrderPlaced)

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers),
		Topic:                  domain.TopicOrderPlaced,
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	orderID := uuid.New()
	msg := orderMessage(t, orderID, 0)
	// the same event twice: the catalog applies it once
	require.NoError(t, w.WriteMessages(ctx, msg, msg))
	w.Close()

	c := NewConsumer(catalog, "storefront-catalog-test", zap.NewNop(), brokers)
	defer c.Close()
	go c.Run(ctx)

	require.Eventually(t, func() bool {
		p, err := catalog.GetProduct(ctx, 5)
		return err == nil && p.SellCount == 20
	}, 30*time.Second, 500*time.Millisecond)

	time.Sleep(2 * time.Second)
	p, err := catalog.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, p.SellCount, 20)
	assert.Equal(t, p.Stock, 3)
}
