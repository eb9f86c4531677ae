package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published after every successfully persisted lifecycle
// operation. Refund carries the amount returned to the customer, zero when
// nothing was refunded.
type BookingEvent struct {
	Type                string    `json:"type"`
	Ref                 string    `json:"ref"`
	CustomerID          int64     `json:"customer_id"`
	OutboundFlightID    int64     `json:"outbound_flight_id"`
	ReturnFlightID      int64     `json:"return_flight_id,omitempty"`
	Status              string    `json:"status"`
	Price               float64   `json:"price"`
	CancellationFee     float64   `json:"cancellation_fee"`
	Refund              float64   `json:"refund"`
	PartialCancellation bool      `json:"partial_cancellation,omitempty"`
	Date                time.Time `json:"date"`
}

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
	EventBookingRebooked  = "booking_rebooked"
	EventFlightDeleted    = "flight_deleted"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
