// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

const (
	// PublishTimeout bounds one publish, retries included. Events are sent
	// inline with the request that caused them.
	PublishTimeout = 3 * time.Second

	batchTimeout = 10 * time.Millisecond
	writeTimeout = 2 * time.Second
	maxAttempts  = 3
)

type OrderLine struct {
	ProductID       string `json:"productId"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase int64  `json:"priceAtPurchase"`
}

// OrderEvent is the JSON payload written to the orders topic. Messages are
// keyed by order id so every event of one order lands on one partition.
type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId,omitempty"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount int64              `json:"totalAmount,omitempty"`
	Items       []OrderLine        `json:"items,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	log    *zap.Logger
	now    func() time.Time
}

func newWriter(brokers []string, topic string) *kafkaGo.Writer {
	return &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkaGo.Hash{},
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            maxAttempts,
		RequiredAcks:           kafkaGo.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	return &Publisher{writer: newWriter(brokers, topic), log: log, now: time.Now}
}

func (p *Publisher) publish(ctx context.Context, ev OrderEvent) error {
	ev.OccurredAt = p.now().UTC()

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(ev.OrderID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}

	p.log.Debug("event published", zap.String("type", ev.Type), zap.String("order_id", ev.OrderID))
	return nil
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, order models.Order, items []models.OrderItem) error {
	lines := make([]OrderLine, len(items))
	for i, it := range items {
		lines[i] = OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, PriceAtPurchase: it.PriceAtPurchase}
	}
	return p.publish(ctx, OrderEvent{
		Type:        TypeOrderPlaced,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Items:       lines,
	})
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error {
	return p.publish(ctx, OrderEvent{Type: TypeOrderStatusChanged, OrderID: orderID, Status: status})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, models.Order, []models.OrderItem) error { return nil }

func (Noop) PublishOrderStatusChanged(context.Context, string, models.OrderStatus) error { return nil }

func (Noop) Close() error { return nil }
