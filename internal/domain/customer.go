package domain

// Customer owns an append-only booking history. Cancellation flips a
// booking's status but never removes it from the list; the only removal path
// is the rollback of a booking that was never persisted.
type Customer struct {
	ID      int64
	Name    string
	Phone   string
	Email   string
	Deleted bool

	bookings []*Booking
}

func NewCustomer(id int64, name, phone, email string) *Customer {
	return &Customer{ID: id, Name: name, Phone: phone, Email: email}
}

func (c *Customer) AddBooking(b *Booking) {
	c.bookings = append(c.bookings, b)
}

// Bookings returns the history in insertion order.
func (c *Customer) Bookings() []*Booking {
	out := make([]*Booking, len(c.bookings))
	copy(out, c.bookings)
	return out
}

// DropBooking removes a booking from the history. Only used to undo an
// append when the enclosing operation failed to persist.
func (c *Customer) DropBooking(b *Booking) {
	for i, existing := range c.bookings {
		if existing == b {
			c.bookings = append(c.bookings[:i], c.bookings[i+1:]...)
			return
		}
	}
}

// ActiveBookingOutbound finds the non-cancelled booking whose outbound leg is
// the given flight, or nil.
func (c *Customer) ActiveBookingOutbound(flightID int64) *Booking {
	for _, b := range c.bookings {
		if !b.IsCancelled() && b.OutboundFlightID == flightID {
			return b
		}
	}
	return nil
}

// ActiveBookingReturn finds the non-cancelled round trip whose return leg is
// the given flight, or nil.
func (c *Customer) ActiveBookingReturn(flightID int64) *Booking {
	for _, b := range c.bookings {
		if !b.IsCancelled() && b.IsRoundTrip() && b.ReturnFlightID == flightID {
			return b
		}
	}
	return nil
}

// HasActiveBookingOn reports whether any non-cancelled booking references the
// flight on either leg.
func (c *Customer) HasActiveBookingOn(flightID int64) bool {
	for _, b := range c.bookings {
		if !b.IsCancelled() && b.References(flightID) {
			return true
		}
	}
	return false
}
