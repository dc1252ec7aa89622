package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"
)

type mockWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func sampleEvent() OrderPlaced {
	order := &domain.Order{ID: "o1", OrderNumber: "ORD-1", Total: 47.99}
	draft := domain.OrderDraft{
		Items:          []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
		ShippingMethod: domain.ShippingStandard,
		PaymentMethod:  domain.PaymentCard,
	}
	return NewOrderPlaced("cart-1", order, draft)
}

func TestNewOrderPlaced(t *testing.T) {
	ev := sampleEvent()
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "cart-1", ev.CartID)
	assert.Equal(t, "o1", ev.OrderID)
	assert.Equal(t, "standard", ev.ShippingMethod)
	assert.False(t, ev.PlacedAt.IsZero())
}

func TestKafkaPublisher_WritesKeyedMessage(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w, log: zap.NewNop()}

	ev := sampleEvent()
	require.NoError(t, p.PublishOrderPlaced(context.Background(), ev))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var got OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, 47.99, got.Total)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &mockWriter{err: boom}, log: zap.NewNop()}

	err := p.PublishOrderPlaced(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
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

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	createTopic(t, brokers[0], DefaultOrderTopic)
	time.Sleep(3 * time.Second)

	p := NewKafkaPublisher(DefaultOrderTopic, zap.NewNop(), brokers...)
	defer p.Close()

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	require.NoError(t, p.PublishOrderPlaced(ctx, sampleEvent()))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  brokers,
		Topic:    DefaultOrderTopic,
		GroupID:  "storefront-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o1", string(msg.Key))
}
