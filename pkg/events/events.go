// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"bookstore/pkg/logger"
)

// Type names a lifecycle transition.
type Type string

const (
	OrderPlaced   Type = "order.placed"
	OrderApproved Type = "order.approved"
	OrderRejected Type = "order.rejected"
)

// Event is one lifecycle notification.
type Event struct {
	Type       Type      `json:"type"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Items      int       `json:"items"`
	Total      string    `json:"total"`
	Actor      string    `json:"actor,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher delivers events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

// Publish discards e.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records e.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by order id.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on broker.
func NewKafkaPublisher(broker, topic string, log *logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
		ErrorLogger:  kafka.LoggerFunc(log.Errorf),
	}
	return &KafkaPublisher{w: w}
}

// Publish writes e to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(e.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
