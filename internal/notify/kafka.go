package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"commerce-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type event struct {
	ID             string       `json:"id"`
	Type           string       `json:"type"`
	OccurredAt     time.Time    `json:"occurredAt"`
	Order          domain.Order `json:"order"`
	PreviousStatus string       `json:"previousStatus,omitempty"`
}

// Kafka publishes order events to a single topic, keyed by order id so
// events for one order stay in sequence within a partition. Writes run
// detached from the request and failures are only logged.
type Kafka struct {
	writer *kafka.Writer
	logger *log.Logger
}

func NewKafka(brokers []string, topic string, logger *log.Logger) *Kafka {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (k *Kafka) Close() error { return k.writer.Close() }

func (k *Kafka) OrderCreated(order domain.Order) {
	k.publish(event{
		ID:         uuid.NewString(),
		Type:       EventOrderCreated,
		OccurredAt: time.Now().UTC(),
		Order:      order,
	})
}

func (k *Kafka) OrderStatusChanged(order domain.Order, previous domain.OrderStatus) {
	k.publish(event{
		ID:             uuid.NewString(),
		Type:           EventOrderStatusChanged,
		OccurredAt:     time.Now().UTC(),
		Order:          order,
		PreviousStatus: string(previous),
	})
}

func (k *Kafka) publish(ev event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		k.logger.Printf("notify: marshal event type=%s order_id=%s error=%v", ev.Type, ev.Order.ID, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := k.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.Order.ID),
			Value: payload,
		}); err != nil {
			k.logger.Printf("notify: publish type=%s order_id=%s error=%v", ev.Type, ev.Order.ID, err)
		}
	}()
}
