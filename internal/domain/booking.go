package domain

import "time"

type BookingStatus string

const (
	// BookingStatusBooked is the initial active state.
	BookingStatusBooked BookingStatus = "BOOKED"
	// BookingStatusCancelled is terminal for this booking record.
	BookingStatusCancelled BookingStatus = "CANCELLED"
	// BookingStatusRebooked marks a successor booking created by a rebooking.
	// It is an active state like BOOKED, not an alias for it: a REBOOKED
	// booking carries the rebooking fee on top of its own price.
	BookingStatusRebooked BookingStatus = "REBOOKED"
)

// Booking links a customer to one or two flight legs by id. The price is
// frozen at creation; only the cascade split on flight deletion rewrites the
// fee against it afterwards.
type Booking struct {
	Ref              string
	CustomerID       int64
	OutboundFlightID int64
	// ReturnFlightID is zero for one-way bookings; non-zero makes this a
	// round trip.
	ReturnFlightID      int64
	BookingDate         time.Time
	Price               float64
	CancellationFee     float64
	Status              BookingStatus
	ActionDate          time.Time
	PartialCancellation bool
}

func (b *Booking) IsRoundTrip() bool { return b.ReturnFlightID != 0 }

func (b *Booking) IsCancelled() bool { return b.Status == BookingStatusCancelled }

// References reports whether the flight is either leg of this booking.
func (b *Booking) References(flightID int64) bool {
	return b.OutboundFlightID == flightID || (b.ReturnFlightID != 0 && b.ReturnFlightID == flightID)
}

// RefundAmount is what the customer gets back, only meaningful once
// cancelled. A negative fee (cascade deletion of a rebooked flight) refunds
// more than the price to also return the rebooking fee.
func (b *Booking) RefundAmount() float64 {
	if b.Status != BookingStatusCancelled {
		return 0
	}
	refund := b.Price - b.CancellationFee
	if refund < 0 {
		return 0
	}
	return refund
}

func (b *Booking) TotalCost() float64 { return b.Price + b.CancellationFee }

// AmountPaid is the customer's net outlay in the booking's current state.
func (b *Booking) AmountPaid() float64 {
	switch b.Status {
	case BookingStatusCancelled:
		return b.CancellationFee
	case BookingStatusRebooked:
		return b.Price + b.CancellationFee
	default:
		return b.Price
	}
}
