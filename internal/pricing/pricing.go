// Package pricing implements the dynamic per-leg price formula shared by
// flight quotes, booking creation and the cascade refund split.
package pricing

import (
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const (
	urgencyLastWeek  = 0.50
	urgencyFortnight = 0.30
	urgencyMonth     = 0.15
	capacityWeight   = 0.40
)

// Quote prices a single flight leg as of the reference day.
//
// The urgency tiers are <=7, <=14 and, strictly, <30 days before departure.
// Exactly 30 days out prices at base. Negative day counts are not rejected
// here; callers enforce that departed flights cannot be booked.
func Quote(basePrice float64, departure, reference time.Time, occupied, capacity int) float64 {
	days := DaysBetween(reference, departure)

	urgency := 0.0
	switch {
	case days <= 7:
		urgency = urgencyLastWeek
	case days <= 14:
		urgency = urgencyFortnight
	case days < 30:
		urgency = urgencyMonth
	}

	occupancy := float64(occupied) / float64(capacity)

	return basePrice * (1 + urgency + occupancy*capacityWeight)
}

// QuoteFlight prices a leg from the flight's live state. Used for the
// current-price display, for freezing a new booking's price and for the
// cascade refund split, which re-evaluates with the original booking date.
func QuoteFlight(f *domain.Flight, reference time.Time) float64 {
	return Quote(f.BasePrice, f.DepartureDate, reference, f.PassengerCount(), f.Capacity)
}

// DaysBetween counts whole calendar days from one day to another, negative
// when to precedes from.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
