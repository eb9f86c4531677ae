package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/clock"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/registry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, reg *registry.Registry) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var today = clock.Day(2026, time.September, 1)

func in(days int) time.Time { return today.AddDate(0, 0, days) }

func newService(reg *registry.Registry, store *MockStore) *Service {
	return NewService(reg, store, nil, nil, clock.Static(today), zerolog.Nop(), "")
}

// fixture seeds one customer and a pair of flights usable as a round trip.
func fixture(t *testing.T) (*registry.Registry, *domain.Customer, *domain.Flight, *domain.Flight) {
	t.Helper()
	reg := registry.New()

	customer := domain.NewCustomer(1, "Kiran Shrestha", "+977-9841000001", "kiran@example.com")
	assert.NoError(t, reg.AddCustomer(customer))

	outbound := domain.NewFlight(1, "FB101", "Kathmandu", "Pokhara", in(35), 150, 200.0)
	ret := domain.NewFlight(2, "FB102", "Pokhara", "Kathmandu", in(40), 150, 180.0)
	assert.NoError(t, reg.AddFlight(outbound))
	assert.NoError(t, reg.AddFlight(ret))

	return reg, customer, outbound, ret
}

func TestCreate_OneWay(t *testing.T) {
	reg, customer, outbound, _ := fixture(t)
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	service := newService(reg, store)

	b, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 1})

	assert.NoError(t, err)
	assert.NotNil(t, b)
	assert.NotEmpty(t, b.Ref)
	assert.Equal(t, domain.BookingStatusBooked, b.Status)
	assert.False(t, b.IsRoundTrip())
	// Empty flight 35 days out carries no urgency or occupancy markup.
	assert.InDelta(t, 200.0, b.Price, 0.001)
	assert.Equal(t, today, b.BookingDate)
	assert.True(t, outbound.HasPassenger(customer.ID))
	assert.Len(t, customer.Bookings(), 1)
	store.AssertExpectations(t)
}

func TestCreate_UrgentHalfFullFlightPrice(t *testing.T) {
	reg, _, _, _ := fixture(t)
	flight := domain.NewFlight(3, "FB201", "Kathmandu", "Bhairahawa", in(5), 10, 200.0)
	for id := int64(100); id < 105; id++ {
		assert.NoError(t, flight.AddPassenger(id))
	}
	assert.NoError(t, reg.AddFlight(flight))

	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	service := newService(reg, store)

	b, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 3})

	assert.NoError(t, err)
	// 50% urgency five days out, half full adds another 20%.
	assert.InDelta(t, 340.0, b.Price, 0.001)
}

func TestCreate_RoundTrip(t *testing.T) {
	reg, customer, outbound, ret := fixture(t)
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	service := newService(reg, store)

	b, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2})

	assert.NoError(t, err)
	assert.True(t, b.IsRoundTrip())
	// Both legs empty and over a month out: sum of base prices.
	assert.InDelta(t, 380.0, b.Price, 0.001)
	assert.True(t, outbound.HasPassenger(customer.ID))
	assert.True(t, ret.HasPassenger(customer.ID))
}

func TestCreate_PublishesEventAndInvalidatesCache(t *testing.T) {
	reg, _, _, _ := fixture(t)
	store := &MockStore{}
	producer := &MockProducer{}
	cache := &MockCache{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	cache.On("InvalidateFlights", mock.Anything).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()

	service := NewService(reg, store, producer, cache, clock.Static(today), zerolog.Nop(), "booking-events")

	_, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 1})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	producer.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCreate_Preconditions(t *testing.T) {
	testCases := []struct {
		name    string
		prepare func(*registry.Registry, *domain.Customer)
		input   CreateBookingInput
		wantErr error
	}{
		{
			name:    "unknown customer",
			input:   CreateBookingInput{CustomerID: 99, OutboundFlightID: 1},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "deleted customer",
			prepare: func(_ *registry.Registry, c *domain.Customer) { c.Deleted = true },
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrInvariant,
		},
		{
			name:    "unknown outbound flight",
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 99},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown return flight",
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 99},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "deleted outbound flight",
			prepare: func(r *registry.Registry, _ *domain.Customer) {
				r.FindFlight(1).Deleted = true
			},
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "departed outbound flight",
			prepare: func(r *registry.Registry, _ *domain.Customer) {
				r.FindFlight(1).DepartureDate = in(-1)
			},
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "duplicate active booking on the outbound flight",
			prepare: func(_ *registry.Registry, c *domain.Customer) {
				c.AddBooking(&domain.Booking{Ref: "r1", CustomerID: 1, OutboundFlightID: 1, Status: domain.BookingStatusBooked})
			},
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "flight held as a return leg elsewhere",
			prepare: func(_ *registry.Registry, c *domain.Customer) {
				c.AddBooking(&domain.Booking{Ref: "r1", CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2, Status: domain.BookingStatusBooked})
			},
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 2},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "round-trip route mismatch",
			prepare: func(r *registry.Registry, _ *domain.Customer) {
				r.FindFlight(2).Origin = "Bhairahawa"
			},
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "return departs before outbound",
			prepare: func(r *registry.Registry, _ *domain.Customer) {
				r.FindFlight(2).DepartureDate = in(10)
			},
			input:   CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2},
			wantErr: domain.ErrInvariant,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg, customer, _, _ := fixture(t)
			if tc.prepare != nil {
				tc.prepare(reg, customer)
			}
			store := &MockStore{}
			service := newService(reg, store)

			b, err := service.Create(context.Background(), tc.input)

			assert.Nil(t, b)
			assert.ErrorIs(t, err, tc.wantErr)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_RouteMismatchUsesReversedLegs(t *testing.T) {
	reg, _, _, _ := fixture(t)
	// Same destination chain but the return does not come back to the origin.
	leg := domain.NewFlight(3, "FB103", "Pokhara", "Bhairahawa", in(40), 150, 100.0)
	assert.NoError(t, reg.AddFlight(leg))
	service := newService(reg, &MockStore{})

	_, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 3})

	assert.ErrorIs(t, err, domain.ErrInvariant)
	assert.Contains(t, err.Error(), "return destination")
}

func TestCreate_FullFlight(t *testing.T) {
	reg, customer, _, _ := fixture(t)
	full := domain.NewFlight(3, "FB301", "Kathmandu", "Biratnagar", in(20), 1, 150.0)
	assert.NoError(t, full.AddPassenger(42))
	assert.NoError(t, reg.AddFlight(full))
	store := &MockStore{}
	service := newService(reg, store)

	b, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 3})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrInvariant)
	assert.False(t, full.HasPassenger(customer.ID))
	assert.Empty(t, customer.Bookings())
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreate_ReturnLegFullRevertsOutboundSeat(t *testing.T) {
	reg, customer, outbound, ret := fixture(t)
	ret.Capacity = 1
	assert.NoError(t, ret.AddPassenger(42))
	service := newService(reg, &MockStore{})

	b, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrInvariant)
	assert.False(t, outbound.HasPassenger(customer.ID))
	assert.False(t, ret.HasPassenger(customer.ID))
	assert.Empty(t, customer.Bookings())
}

func TestCreate_PersistenceFailureRollsBack(t *testing.T) {
	reg, customer, outbound, ret := fixture(t)
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(errors.New("connection refused")).Once()
	service := newService(reg, store)

	b, err := service.Create(context.Background(), CreateBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, outbound.HasPassenger(customer.ID))
	assert.False(t, ret.HasPassenger(customer.ID))
	assert.Empty(t, customer.Bookings())
	store.AssertExpectations(t)
}

// seedBooking installs an already-persisted booking, seating the passenger on
// its legs.
func seedBooking(t *testing.T, reg *registry.Registry, customer *domain.Customer, b *domain.Booking) {
	t.Helper()
	assert.NoError(t, reg.FindFlight(b.OutboundFlightID).AddPassenger(customer.ID))
	if b.IsRoundTrip() {
		assert.NoError(t, reg.FindFlight(b.ReturnFlightID).AddPassenger(customer.ID))
	}
	customer.AddBooking(b)
}

func TestCancel_OneWay(t *testing.T) {
	reg, customer, outbound, _ := fixture(t)
	seedBooking(t, reg, customer, &domain.Booking{
		Ref: "b1", CustomerID: 1, OutboundFlightID: 1,
		BookingDate: in(-10), Price: 300.0, Status: domain.BookingStatusBooked, ActionDate: in(-10),
	})
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	service := newService(reg, store)

	b, err := service.Cancel(context.Background(), CancelBookingInput{CustomerID: 1, OutboundFlightID: 1})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	assert.InDelta(t, 25.0, b.CancellationFee, 0.001)
	assert.InDelta(t, 275.0, b.RefundAmount(), 0.001)
	assert.Equal(t, today, b.ActionDate)
	assert.False(t, outbound.HasPassenger(customer.ID))
}

func TestCancel_RoundTrip(t *testing.T) {
	reg, customer, outbound, ret := fixture(t)
	seedBooking(t, reg, customer, &domain.Booking{
		Ref: "b1", CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2,
		BookingDate: in(-10), Price: 380.0, Status: domain.BookingStatusBooked, ActionDate: in(-10),
	})
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	service := newService(reg, store)

	b, err := service.Cancel(context.Background(), CancelBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2})

	assert.NoError(t, err)
	assert.InDelta(t, 50.0, b.CancellationFee, 0.001)
	assert.InDelta(t, 330.0, b.RefundAmount(), 0.001)
	assert.False(t, outbound.HasPassenger(customer.ID))
	assert.False(t, ret.HasPassenger(customer.ID))
}

func TestCancel_Preconditions(t *testing.T) {
	roundTrip := func(c *domain.Customer) {
		c.AddBooking(&domain.Booking{
			Ref: "b1", CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2,
			Price: 380.0, Status: domain.BookingStatusBooked,
		})
	}
	oneWay := func(c *domain.Customer) {
		c.AddBooking(&domain.Booking{
			Ref: "b1", CustomerID: 1, OutboundFlightID: 1,
			Price: 200.0, Status: domain.BookingStatusBooked,
		})
	}

	testCases := []struct {
		name    string
		prepare func(*registry.Registry, *domain.Customer)
		input   CancelBookingInput
		wantErr error
		msg     string
	}{
		{
			name:    "unknown customer",
			input:   CancelBookingInput{CustomerID: 99, OutboundFlightID: 1},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "no active booking",
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "cancelled booking does not count",
			prepare: func(_ *registry.Registry, c *domain.Customer) {
				c.AddBooking(&domain.Booking{Ref: "b1", CustomerID: 1, OutboundFlightID: 1, Status: domain.BookingStatusCancelled})
			},
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "cancelling by the return leg id",
			prepare: func(_ *registry.Registry, c *domain.Customer) { roundTrip(c) },
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 2},
			wantErr: domain.ErrInvariant,
			msg:     "return leg",
		},
		{
			name:    "round trip without return id",
			prepare: func(_ *registry.Registry, c *domain.Customer) { roundTrip(c) },
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrInvariant,
			msg:     "round-trip",
		},
		{
			name:    "round trip with wrong return id",
			prepare: func(_ *registry.Registry, c *domain.Customer) { roundTrip(c) },
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 3},
			wantErr: domain.ErrInvariant,
			msg:     "mismatch",
		},
		{
			name:    "one way with a return id",
			prepare: func(_ *registry.Registry, c *domain.Customer) { oneWay(c) },
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2},
			wantErr: domain.ErrInvariant,
			msg:     "one-way",
		},
		{
			name: "departed outbound",
			prepare: func(r *registry.Registry, c *domain.Customer) {
				oneWay(c)
				r.FindFlight(1).DepartureDate = in(-1)
			},
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1},
			wantErr: domain.ErrInvariant,
			msg:     "departed",
		},
		{
			name: "round trip after the outbound departed",
			prepare: func(r *registry.Registry, c *domain.Customer) {
				roundTrip(c)
				r.FindFlight(1).DepartureDate = in(-1)
			},
			input:   CancelBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2},
			wantErr: domain.ErrInvariant,
			msg:     "departed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg, customer, _, _ := fixture(t)
			if tc.prepare != nil {
				tc.prepare(reg, customer)
			}
			service := newService(reg, &MockStore{})

			b, err := service.Cancel(context.Background(), tc.input)

			assert.Nil(t, b)
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestCancel_PersistenceFailureRollsBack(t *testing.T) {
	reg, customer, outbound, ret := fixture(t)
	booking := &domain.Booking{
		Ref: "b1", CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2,
		BookingDate: in(-10), Price: 380.0, Status: domain.BookingStatusBooked, ActionDate: in(-10),
	}
	seedBooking(t, reg, customer, booking)
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(errors.New("connection refused")).Once()
	service := newService(reg, store)

	_, err := service.Cancel(context.Background(), CancelBookingInput{CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2})

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, domain.BookingStatusBooked, booking.Status)
	assert.InDelta(t, 0.0, booking.CancellationFee, 0.001)
	assert.Equal(t, in(-10), booking.ActionDate)
	assert.True(t, outbound.HasPassenger(customer.ID))
	assert.True(t, ret.HasPassenger(customer.ID))
}

func TestRebook_OneWay(t *testing.T) {
	reg, customer, oldFlight, _ := fixture(t)
	newFlight := domain.NewFlight(3, "FB401", "Kathmandu", "Janakpur", in(35), 150, 120.0)
	assert.NoError(t, reg.AddFlight(newFlight))
	existing := &domain.Booking{
		Ref: "b1", CustomerID: 1, OutboundFlightID: 1,
		BookingDate: in(-10), Price: 250.0, Status: domain.BookingStatusBooked, ActionDate: in(-10),
	}
	seedBooking(t, reg, customer, existing)
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(nil).Once()
	service := newService(reg, store)

	b, err := service.Rebook(context.Background(), RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 3})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusRebooked, b.Status)
	assert.Equal(t, int64(3), b.OutboundFlightID)
	assert.InDelta(t, 15.0, b.CancellationFee, 0.001)
	assert.InDelta(t, 120.0, b.Price, 0.001)
	assert.InDelta(t, 135.0, b.AmountPaid(), 0.001)

	// The old booking is superseded, its own money untouched.
	assert.Equal(t, domain.BookingStatusCancelled, existing.Status)
	assert.InDelta(t, 250.0, existing.Price, 0.001)
	assert.Equal(t, today, existing.ActionDate)

	assert.False(t, oldFlight.HasPassenger(customer.ID))
	assert.True(t, newFlight.HasPassenger(customer.ID))
	assert.Len(t, customer.Bookings(), 2)
}

func TestRebook_Preconditions(t *testing.T) {
	seedOneWay := func(c *domain.Customer) {
		c.AddBooking(&domain.Booking{Ref: "b1", CustomerID: 1, OutboundFlightID: 1, Price: 200.0, Status: domain.BookingStatusBooked})
	}

	testCases := []struct {
		name    string
		prepare func(*registry.Registry, *domain.Customer)
		input   RebookInput
		wantErr error
		msg     string
	}{
		{
			name:    "unknown customer",
			input:   RebookInput{CustomerID: 99, OldFlightID: 1, NewFlightID: 2},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "same flight",
			prepare: func(_ *registry.Registry, c *domain.Customer) { seedOneWay(c) },
			input:   RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 1},
			wantErr: domain.ErrInvariant,
			msg:     "same flight",
		},
		{
			name:    "no active booking on old flight",
			input:   RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 2},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "round trip via outbound leg",
			prepare: func(_ *registry.Registry, c *domain.Customer) {
				c.AddBooking(&domain.Booking{Ref: "b1", CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2, Price: 380.0, Status: domain.BookingStatusBooked})
			},
			input:   RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 3},
			wantErr: domain.ErrInvariant,
			msg:     "outbound leg",
		},
		{
			name: "round trip via return leg",
			prepare: func(_ *registry.Registry, c *domain.Customer) {
				c.AddBooking(&domain.Booking{Ref: "b1", CustomerID: 1, OutboundFlightID: 1, ReturnFlightID: 2, Price: 380.0, Status: domain.BookingStatusBooked})
			},
			input:   RebookInput{CustomerID: 1, OldFlightID: 2, NewFlightID: 3},
			wantErr: domain.ErrInvariant,
			msg:     "return leg",
		},
		{
			name: "old flight departed",
			prepare: func(r *registry.Registry, c *domain.Customer) {
				seedOneWay(c)
				r.FindFlight(1).DepartureDate = in(-1)
			},
			input:   RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 2},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "new flight departed",
			prepare: func(r *registry.Registry, c *domain.Customer) {
				seedOneWay(c)
				r.FindFlight(2).DepartureDate = in(-1)
			},
			input:   RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 2},
			wantErr: domain.ErrInvariant,
		},
		{
			name: "new flight already held",
			prepare: func(_ *registry.Registry, c *domain.Customer) {
				seedOneWay(c)
				c.AddBooking(&domain.Booking{Ref: "b2", CustomerID: 1, OutboundFlightID: 2, Price: 180.0, Status: domain.BookingStatusBooked})
			},
			input:   RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 2},
			wantErr: domain.ErrInvariant,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg, customer, _, _ := fixture(t)
			// A third flight for the round-trip cases.
			assert.NoError(t, reg.AddFlight(domain.NewFlight(3, "FB401", "Kathmandu", "Janakpur", in(35), 150, 120.0)))
			if tc.prepare != nil {
				tc.prepare(reg, customer)
			}
			service := newService(reg, &MockStore{})

			b, err := service.Rebook(context.Background(), tc.input)

			assert.Nil(t, b)
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestRebook_NewFlightFullRevertsOldSeat(t *testing.T) {
	reg, customer, oldFlight, _ := fixture(t)
	full := domain.NewFlight(3, "FB401", "Kathmandu", "Janakpur", in(35), 1, 120.0)
	assert.NoError(t, full.AddPassenger(42))
	assert.NoError(t, reg.AddFlight(full))
	existing := &domain.Booking{Ref: "b1", CustomerID: 1, OutboundFlightID: 1, Price: 250.0, Status: domain.BookingStatusBooked}
	seedBooking(t, reg, customer, existing)
	service := newService(reg, &MockStore{})

	b, err := service.Rebook(context.Background(), RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 3})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrInvariant)
	assert.True(t, oldFlight.HasPassenger(customer.ID))
	assert.False(t, full.HasPassenger(customer.ID))
	assert.Equal(t, domain.BookingStatusBooked, existing.Status)
	assert.Len(t, customer.Bookings(), 1)
}

func TestRebook_PersistenceFailureRollsBack(t *testing.T) {
	reg, customer, oldFlight, _ := fixture(t)
	newFlight := domain.NewFlight(3, "FB401", "Kathmandu", "Janakpur", in(35), 150, 120.0)
	assert.NoError(t, reg.AddFlight(newFlight))
	existing := &domain.Booking{
		Ref: "b1", CustomerID: 1, OutboundFlightID: 1,
		BookingDate: in(-10), Price: 250.0, Status: domain.BookingStatusBooked, ActionDate: in(-10),
	}
	seedBooking(t, reg, customer, existing)
	store := &MockStore{}
	store.On("Save", mock.Anything, reg).Return(errors.New("connection refused")).Once()
	service := newService(reg, store)

	_, err := service.Rebook(context.Background(), RebookInput{CustomerID: 1, OldFlightID: 1, NewFlightID: 3})

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, domain.BookingStatusBooked, existing.Status)
	assert.Equal(t, in(-10), existing.ActionDate)
	assert.True(t, oldFlight.HasPassenger(customer.ID))
	assert.False(t, newFlight.HasPassenger(customer.ID))
	assert.Len(t, customer.Bookings(), 1)
}

func TestListForCustomer(t *testing.T) {
	reg, customer, _, _ := fixture(t)
	customer.AddBooking(&domain.Booking{Ref: "b1", CustomerID: 1, OutboundFlightID: 1, Status: domain.BookingStatusCancelled})
	customer.AddBooking(&domain.Booking{Ref: "b2", CustomerID: 1, OutboundFlightID: 2, Status: domain.BookingStatusBooked})
	service := newService(reg, &MockStore{})

	list, err := service.ListForCustomer(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, list, 2)
	// History keeps insertion order, cancelled entries included.
	assert.Equal(t, "b1", list[0].Ref)
	assert.Equal(t, "b2", list[1].Ref)

	_, err = service.ListForCustomer(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
