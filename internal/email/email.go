package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
)

// Sender turns booking events into customer notifications. The delivery
// backend is a stub; the worker only needs the contract.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case kafka.EventBookingCancelled, kafka.EventFlightDeleted:
		fmt.Printf("notify customer %d: booking %s %s, refund £%.2f\n", event.CustomerID, event.Ref, event.Type, event.Refund)
	default:
		fmt.Printf("notify customer %d: booking %s %s for flight %d, price £%.2f\n", event.CustomerID, event.Ref, event.Type, event.OutboundFlightID, event.Price)
	}
	return nil
}
