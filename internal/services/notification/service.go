// Package notification publishes scheduled bill lifecycle events.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types
const (
	EventScheduledBillCreated   = "scheduled_bill.created"
	EventScheduledBillCancelled = "scheduled_bill.cancelled"
	EventScheduledBillPaid      = "scheduled_bill.paid"
	EventScheduledBillFailed    = "scheduled_bill.failed"
	EventScheduledBillPartial   = "scheduled_bill.partial"
)

// Event is one lifecycle change of a scheduled bill.
type Event struct {
	Type            string    `json:"type"`
	ScheduledBillID string    `json:"scheduledBillId"`
	UserID          string    `json:"userId"`
	WalletID        string    `json:"walletId"`
	BillID          string    `json:"billId,omitempty"`
	Amount          string    `json:"amount,omitempty"`
	TransactionID   string    `json:"transactionId,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a synchronous writer keyed by wallet id so events
// of one wallet stay ordered.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		MaxAttempts:  10,
	}
}

// KafkaPublisher writes events as JSON messages.
type KafkaPublisher struct {
	writer MessageWriter
	log    *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, log: log.Named("notification")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.WalletID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.log.Debug("event published", zap.String("type", event.Type), zap.String("scheduled_bill_id", event.ScheduledBillID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the service log only.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPublisher{log: log.Named("notification")}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.log.Info("scheduled bill event",
		zap.String("type", event.Type),
		zap.String("scheduled_bill_id", event.ScheduledBillID),
		zap.String("user_id", event.UserID),
		zap.String("wallet_id", event.WalletID),
		zap.String("transaction_id", event.TransactionID),
		zap.String("reason", event.Reason),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// New picks the Kafka publisher when brokers are configured.
func New(brokers []string, topic string, log *zap.Logger) Publisher {
	if len(brokers) == 0 {
		return NewLogPublisher(log)
	}
	return NewKafkaPublisher(NewKafkaWriter(brokers, topic), log)
}
