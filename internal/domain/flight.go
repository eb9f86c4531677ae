package domain

import (
	"sort"
	"time"
)

// Flight is a single flight leg. Dates are calendar days stored as midnight
// UTC; all date comparisons in the system use that convention.
type Flight struct {
	ID            int64
	Number        string
	Origin        string
	Destination   string
	DepartureDate time.Time
	Capacity      int
	BasePrice     float64
	Deleted       bool

	passengers map[int64]struct{}
}

func NewFlight(id int64, number, origin, destination string, departure time.Time, capacity int, basePrice float64) *Flight {
	return &Flight{
		ID:            id,
		Number:        number,
		Origin:        origin,
		Destination:   destination,
		DepartureDate: departure,
		Capacity:      capacity,
		BasePrice:     basePrice,
		passengers:    make(map[int64]struct{}),
	}
}

// AddPassenger seats a customer on the flight, enforcing capacity.
func (f *Flight) AddPassenger(customerID int64) error {
	if len(f.passengers) >= f.Capacity {
		return Invariantf("flight %s (#%d) is at full capacity (%d seats)", f.Number, f.ID, f.Capacity)
	}
	if f.passengers == nil {
		f.passengers = make(map[int64]struct{})
	}
	f.passengers[customerID] = struct{}{}
	return nil
}

func (f *Flight) RemovePassenger(customerID int64) {
	delete(f.passengers, customerID)
}

func (f *Flight) HasPassenger(customerID int64) bool {
	_, ok := f.passengers[customerID]
	return ok
}

func (f *Flight) PassengerCount() int { return len(f.passengers) }

// PassengerIDs returns the seated customers in ascending id order.
func (f *Flight) PassengerIDs() []int64 {
	ids := make([]int64, 0, len(f.passengers))
	for id := range f.passengers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasDeparted reports whether the flight left before the given day.
// A flight departing today has not yet departed.
func (f *Flight) HasDeparted(today time.Time) bool {
	return f.DepartureDate.Before(today)
}

// FlightView is the read-model shape served by listings and the cache.
type FlightView struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureDate  time.Time `json:"departure_date"`
	Capacity       int       `json:"capacity"`
	Occupied       int       `json:"occupied"`
	AvailableSeats int       `json:"available_seats"`
	BasePrice      float64   `json:"base_price"`
	CurrentPrice   float64   `json:"current_price"`
	Deleted        bool      `json:"deleted"`
}

// View snapshots the flight for read paths. CurrentPrice is filled in by the
// flights service, which owns the pricing reference date.
func (f *Flight) View() FlightView {
	return FlightView{
		ID:             f.ID,
		Number:         f.Number,
		Origin:         f.Origin,
		Destination:    f.Destination,
		DepartureDate:  f.DepartureDate,
		Capacity:       f.Capacity,
		Occupied:       len(f.passengers),
		AvailableSeats: f.Capacity - len(f.passengers),
		BasePrice:      f.BasePrice,
		Deleted:        f.Deleted,
	}
}
