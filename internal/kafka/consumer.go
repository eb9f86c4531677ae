package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer feeds decoded booking events to a handler. Payloads that do not
// decode are counted and skipped rather than wedging the consumer group on a
// poison message.
type Consumer struct {
	reader  *kafka.Reader
	skipped int64
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Skipped reports how many undecodable messages were dropped so far.
func (c *Consumer) Skipped() int64 { return c.skipped }

// Consume reads booking events until the context is cancelled or the handler
// fails.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			c.skipped++
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeEvent(payload []byte) (BookingEvent, error) {
	var event BookingEvent
	err := json.Unmarshal(payload, &event)
	return event, err
}
