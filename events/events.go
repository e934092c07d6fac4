package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"foodmarket/models"

	kafkaGo "github.com/segmentio/kafka-go"
)

// OrderPlaced is the payload published after an order document is stored.
type OrderPlaced struct {
	OrderID       string    `json:"orderId"`
	BookedByID    string    `json:"bookedById"`
	ProductID     string    `json:"productId"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	PaymentMethod string    `json:"paymentMethod"`
	PlacedAt      time.Time `json:"placedAt"`
}

func NewOrderPlaced(o models.Order) OrderPlaced {
	return OrderPlaced{
		OrderID:       o.ID.Hex(),
		BookedByID:    o.BookedByID.Hex(),
		ProductID:     o.ProductID.Hex(),
		Quantity:      o.Quantity,
		Price:         o.Price,
		PaymentMethod: o.PaymentMethod,
		PlacedAt:      o.CreatedAt,
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlaced) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type kafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher writes order events to topic, keyed by product id so that
// events for one product stay ordered.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{w: &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkaGo.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}}
}

func (k *kafkaPublisher) PublishOrderPlaced(ctx context.Context, e OrderPlaced) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return k.w.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(e.ProductID),
		Value: payload,
	})
}

func (k *kafkaPublisher) Close() error { return k.w.Close() }

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) PublishOrderPlaced(ctx context.Context, e OrderPlaced) error {
	slog.Debug("order event dropped, no broker configured", "order_id", e.OrderID)
	return nil
}

func (noopPublisher) Close() error { return nil }

// New picks the kafka publisher when brokers are set.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NewNoopPublisher()
	}
	return NewKafkaPublisher(brokers, topic)
}
