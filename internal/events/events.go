package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultOrderTopic = "order.placed"
	EventOrderPlaced  = "OrderPlaced"
)

type OrderPlaced struct {
	EventID        string             `json:"event_id"`
	CartID         string             `json:"cart_id"`
	OrderID        string             `json:"order_id"`
	OrderNumber    string             `json:"order_number,omitempty"`
	Items          []domain.OrderItem `json:"items"`
	ShippingMethod string             `json:"shipping_method"`
	PaymentMethod  string             `json:"payment_method"`
	Total          float64            `json:"total"`
	PlacedAt       time.Time          `json:"placed_at"`
}

// NewOrderPlaced stamps a fresh event id and time.
func NewOrderPlaced(cartID string, order *domain.Order, draft domain.OrderDraft) OrderPlaced {
	return OrderPlaced{
		EventID:        uuid.NewString(),
		CartID:         cartID,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Items:          draft.Items,
		ShippingMethod: string(draft.ShippingMethod),
		PaymentMethod:  string(draft.PaymentMethod),
		Total:          order.Total,
		PlacedAt:       time.Now().UTC(),
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger
}

func NewKafkaPublisher(topic string, log *zap.Logger, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultOrderTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &KafkaPublisher{writer: w, log: log}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID), // order id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event failed: %w", err)
	}

	p.log.Debug("order event published",
		zap.String("order_id", event.OrderID),
		zap.String("event_id", event.EventID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (NopPublisher) Close() error                                         { return nil }
