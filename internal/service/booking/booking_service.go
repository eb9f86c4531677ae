package booking

import (
	"context"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/clock"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/registry"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	oneWayCancellationFee    = 25.0
	roundTripCancellationFee = 50.0
	rebookingFee             = 15.0
)

type BookingUseCase interface {
	Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	Cancel(ctx context.Context, input CancelBookingInput) (*domain.Booking, error)
	Rebook(ctx context.Context, input RebookInput) (*domain.Booking, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

// Service runs the booking lifecycle against the shared in-memory model.
// Every operation holds the registry's single-writer lock end to end,
// persistence attempt included, and reverts its own mutations when the
// persistence attempt fails.
type Service struct {
	reg      *registry.Registry
	store    repository.ModelStore
	producer Producer
	cache    Cache
	clock    clock.Clock
	log      zerolog.Logger
	topic    string
}

type CreateBookingInput struct {
	CustomerID       int64 `json:"customer_id"`
	OutboundFlightID int64 `json:"outbound_flight_id"`
	// ReturnFlightID zero means one-way.
	ReturnFlightID int64 `json:"return_flight_id,omitempty"`
}

type CancelBookingInput struct {
	CustomerID       int64 `json:"customer_id"`
	OutboundFlightID int64 `json:"outbound_flight_id"`
	// ReturnFlightID is required iff the booking is a round trip and must
	// match its return leg exactly.
	ReturnFlightID int64 `json:"return_flight_id,omitempty"`
}

type RebookInput struct {
	CustomerID  int64 `json:"customer_id"`
	OldFlightID int64 `json:"old_flight_id"`
	NewFlightID int64 `json:"new_flight_id"`
}

func NewService(reg *registry.Registry, store repository.ModelStore, producer Producer, cache Cache, clk clock.Clock, log zerolog.Logger, topic string) *Service {
	return &Service{
		reg:      reg,
		store:    store,
		producer: producer,
		cache:    cache,
		clock:    clk,
		log:      log.With().Str("component", "booking_service").Logger(),
		topic:    topic,
	}
}

// Create books a one-way or round-trip itinerary, freezing the dynamic price
// at today's date against each leg's current occupancy.
func (s *Service) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	today := s.clock.Today()

	customer := s.reg.FindCustomer(input.CustomerID)
	if customer == nil {
		return nil, domain.NotFoundf("customer with id %d not found", input.CustomerID)
	}
	if customer.Deleted {
		return nil, domain.Invariantf("customer %d has been deleted", input.CustomerID)
	}

	outbound := s.reg.FindFlight(input.OutboundFlightID)
	if outbound == nil {
		return nil, domain.NotFoundf("flight with id %d not found", input.OutboundFlightID)
	}
	var ret *domain.Flight
	if input.ReturnFlightID != 0 {
		if ret = s.reg.FindFlight(input.ReturnFlightID); ret == nil {
			return nil, domain.NotFoundf("return flight with id %d not found", input.ReturnFlightID)
		}
	}

	if outbound.Deleted {
		return nil, domain.Invariantf("outbound flight %d has been deleted", outbound.ID)
	}
	if ret != nil && ret.Deleted {
		return nil, domain.Invariantf("return flight %d has been deleted", ret.ID)
	}
	if outbound.HasDeparted(today) {
		return nil, domain.Invariantf("outbound flight %d has already departed", outbound.ID)
	}
	if ret != nil && ret.HasDeparted(today) {
		return nil, domain.Invariantf("return flight %d has already departed", ret.ID)
	}

	// A flight already held on either leg of any active booking cannot be
	// booked again, whichever slot it would land in this time.
	for _, id := range []int64{input.OutboundFlightID, input.ReturnFlightID} {
		if id != 0 && customer.HasActiveBookingOn(id) {
			return nil, domain.Invariantf("customer %d already has an active booking for flight %d", customer.ID, id)
		}
	}

	if ret != nil {
		if !strings.EqualFold(outbound.Destination, ret.Origin) {
			return nil, domain.Invariantf("invalid round-trip route: outbound destination %q must match return origin %q", outbound.Destination, ret.Origin)
		}
		if !strings.EqualFold(outbound.Origin, ret.Destination) {
			return nil, domain.Invariantf("invalid round-trip route: outbound origin %q must match return destination %q", outbound.Origin, ret.Destination)
		}
		if ret.DepartureDate.Before(outbound.DepartureDate) {
			return nil, domain.Invariantf("return flight cannot depart before the outbound flight: outbound departs %s, return departs %s",
				outbound.DepartureDate.Format("2006-01-02"), ret.DepartureDate.Format("2006-01-02"))
		}
	}

	// Price each leg before seating the passenger so the quote reflects the
	// occupancy the customer saw.
	price := pricing.QuoteFlight(outbound, today)
	if ret != nil {
		price += pricing.QuoteFlight(ret, today)
	}

	booking := &domain.Booking{
		Ref:              uuid.NewString(),
		CustomerID:       customer.ID,
		OutboundFlightID: outbound.ID,
		ReturnFlightID:   input.ReturnFlightID,
		BookingDate:      today,
		Price:            price,
		Status:           domain.BookingStatusBooked,
		ActionDate:       today,
	}

	var undo registry.UndoLog
	if err := outbound.AddPassenger(customer.ID); err != nil {
		return nil, err
	}
	undo.Record(func() { outbound.RemovePassenger(customer.ID) })
	if ret != nil {
		if err := ret.AddPassenger(customer.ID); err != nil {
			undo.Revert()
			return nil, err
		}
		undo.Record(func() { ret.RemovePassenger(customer.ID) })
	}
	customer.AddBooking(booking)
	undo.Record(func() { customer.DropBooking(booking) })

	if err := s.store.Save(ctx, s.reg); err != nil {
		undo.Revert()
		s.log.Error().Err(err).Str("ref", booking.Ref).Msg("create booking rolled back")
		return nil, domain.PersistFailed(err)
	}

	s.afterCommit(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// Cancel cancels an active booking identified by its outbound flight,
// charging the flat cancellation fee and freeing the seats.
func (s *Service) Cancel(ctx context.Context, input CancelBookingInput) (*domain.Booking, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	today := s.clock.Today()

	customer := s.reg.FindCustomer(input.CustomerID)
	if customer == nil {
		return nil, domain.NotFoundf("customer with id %d not found", input.CustomerID)
	}
	outbound := s.reg.FindFlight(input.OutboundFlightID)
	if outbound == nil {
		return nil, domain.NotFoundf("flight with id %d not found", input.OutboundFlightID)
	}

	booking := customer.ActiveBookingOutbound(input.OutboundFlightID)
	if booking == nil {
		if other := customer.ActiveBookingReturn(input.OutboundFlightID); other != nil {
			return nil, domain.Invariantf("flight %d is the return leg of a round-trip booking; cancel it with outbound flight %d and return flight %d",
				input.OutboundFlightID, other.OutboundFlightID, input.OutboundFlightID)
		}
		return nil, domain.NotFoundf("no active booking found for flight %d", input.OutboundFlightID)
	}

	if booking.IsRoundTrip() {
		if input.ReturnFlightID == 0 {
			return nil, domain.Invariantf("this is a round-trip booking; provide both outbound and return flight ids to cancel")
		}
		if booking.ReturnFlightID != input.ReturnFlightID {
			return nil, domain.Invariantf("return flight mismatch: expected flight %d, got %d", booking.ReturnFlightID, input.ReturnFlightID)
		}
	} else if input.ReturnFlightID != 0 {
		return nil, domain.Invariantf("this is a one-way booking; provide only the outbound flight id")
	}

	ret := s.reg.FindFlight(booking.ReturnFlightID)

	if outbound.Deleted {
		return nil, domain.Invariantf("outbound flight %d has been deleted", outbound.ID)
	}
	if booking.IsRoundTrip() && ret != nil && ret.Deleted {
		return nil, domain.Invariantf("return flight %d has been deleted", ret.ID)
	}
	// Once the outbound leg has departed nothing can be cancelled, round
	// trips included.
	if outbound.HasDeparted(today) {
		return nil, domain.Invariantf("flight %d has already departed", outbound.ID)
	}

	fee := oneWayCancellationFee
	if booking.IsRoundTrip() {
		fee = roundTripCancellationFee
	}

	var undo registry.UndoLog
	prevFee, prevStatus, prevAction := booking.CancellationFee, booking.Status, booking.ActionDate
	undo.Record(func() {
		booking.CancellationFee = prevFee
		booking.Status = prevStatus
		booking.ActionDate = prevAction
	})
	booking.CancellationFee = fee
	booking.Status = domain.BookingStatusCancelled
	booking.ActionDate = today

	outbound.RemovePassenger(customer.ID)
	undo.Record(func() { _ = outbound.AddPassenger(customer.ID) })
	if ret != nil {
		ret.RemovePassenger(customer.ID)
		undo.Record(func() { _ = ret.AddPassenger(customer.ID) })
	}

	if err := s.store.Save(ctx, s.reg); err != nil {
		undo.Revert()
		s.log.Error().Err(err).Str("ref", booking.Ref).Msg("cancel booking rolled back")
		return nil, domain.PersistFailed(err)
	}

	s.afterCommit(ctx, kafka.EventBookingCancelled, booking)
	return booking, nil
}

// Rebook moves a one-way booking to a different flight for a flat fee. The
// old booking is cancelled and superseded; its own price and fee stay as
// they were.
func (s *Service) Rebook(ctx context.Context, input RebookInput) (*domain.Booking, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	today := s.clock.Today()

	customer := s.reg.FindCustomer(input.CustomerID)
	if customer == nil {
		return nil, domain.NotFoundf("customer with id %d not found", input.CustomerID)
	}
	oldFlight := s.reg.FindFlight(input.OldFlightID)
	if oldFlight == nil {
		return nil, domain.NotFoundf("old flight with id %d not found", input.OldFlightID)
	}
	newFlight := s.reg.FindFlight(input.NewFlightID)
	if newFlight == nil {
		return nil, domain.NotFoundf("new flight with id %d not found", input.NewFlightID)
	}
	if input.OldFlightID == input.NewFlightID {
		return nil, domain.Invariantf("cannot rebook to the same flight %d", input.NewFlightID)
	}

	existing := customer.ActiveBookingOutbound(input.OldFlightID)
	oldFlightIsReturn := false
	if existing == nil {
		existing = customer.ActiveBookingReturn(input.OldFlightID)
		oldFlightIsReturn = existing != nil
	}
	if existing == nil {
		return nil, domain.NotFoundf("no active booking found for flight %d", input.OldFlightID)
	}
	if existing.IsRoundTrip() {
		leg := "outbound"
		if oldFlightIsReturn {
			leg = "return"
		}
		return nil, domain.Invariantf("flight %d is the %s leg of a round-trip booking; round-trip bookings cannot be rebooked, cancel and book again instead", input.OldFlightID, leg)
	}

	if oldFlight.Deleted {
		return nil, domain.Invariantf("old flight %d has been deleted", oldFlight.ID)
	}
	if oldFlight.HasDeparted(today) {
		return nil, domain.Invariantf("old flight %d has already departed", oldFlight.ID)
	}
	if newFlight.Deleted {
		return nil, domain.Invariantf("new flight %d has been deleted", newFlight.ID)
	}
	if newFlight.HasDeparted(today) {
		return nil, domain.Invariantf("new flight %d has already departed", newFlight.ID)
	}
	if customer.HasActiveBookingOn(input.NewFlightID) {
		return nil, domain.Invariantf("customer %d already has an active booking for flight %d", customer.ID, input.NewFlightID)
	}

	newBooking := &domain.Booking{
		Ref:              uuid.NewString(),
		CustomerID:       customer.ID,
		OutboundFlightID: newFlight.ID,
		BookingDate:      today,
		Price:            pricing.QuoteFlight(newFlight, today),
		CancellationFee:  rebookingFee,
		Status:           domain.BookingStatusRebooked,
		ActionDate:       today,
	}

	var undo registry.UndoLog
	oldFlight.RemovePassenger(customer.ID)
	undo.Record(func() { _ = oldFlight.AddPassenger(customer.ID) })
	if err := newFlight.AddPassenger(customer.ID); err != nil {
		undo.Revert()
		return nil, err
	}
	undo.Record(func() { newFlight.RemovePassenger(customer.ID) })

	prevStatus, prevAction := existing.Status, existing.ActionDate
	undo.Record(func() {
		existing.Status = prevStatus
		existing.ActionDate = prevAction
	})
	existing.Status = domain.BookingStatusCancelled
	existing.ActionDate = today

	customer.AddBooking(newBooking)
	undo.Record(func() { customer.DropBooking(newBooking) })

	if err := s.store.Save(ctx, s.reg); err != nil {
		undo.Revert()
		s.log.Error().Err(err).Str("ref", newBooking.Ref).Msg("rebook rolled back")
		return nil, domain.PersistFailed(err)
	}

	s.afterCommit(ctx, kafka.EventBookingRebooked, newBooking)
	return newBooking, nil
}

// ListForCustomer returns the customer's full booking history in insertion
// order, cancelled entries included.
func (s *Service) ListForCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	customer := s.reg.FindCustomer(customerID)
	if customer == nil {
		return nil, domain.NotFoundf("customer with id %d not found", customerID)
	}

	bookings := customer.Bookings()
	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, *b)
	}
	return out, nil
}

// afterCommit handles the best-effort side effects of a persisted change:
// event publication and cache invalidation. Failures are logged, never
// surfaced, since the model change is already durable.
func (s *Service) afterCommit(ctx context.Context, eventType string, b *domain.Booking) {
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn().Err(err).Msg("flights cache invalidation failed")
		}
	}
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:                eventType,
		Ref:                 b.Ref,
		CustomerID:          b.CustomerID,
		OutboundFlightID:    b.OutboundFlightID,
		ReturnFlightID:      b.ReturnFlightID,
		Status:              string(b.Status),
		Price:               b.Price,
		CancellationFee:     b.CancellationFee,
		Refund:              b.RefundAmount(),
		PartialCancellation: b.PartialCancellation,
		Date:                b.ActionDate,
	}
	if err := s.producer.Publish(ctx, s.topic, b.Ref, event); err != nil {
		s.log.Warn().Err(err).Str("ref", b.Ref).Str("type", eventType).Msg("event publish failed")
	}
}

var _ BookingUseCase = (*Service)(nil)
