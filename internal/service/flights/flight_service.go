package flights

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/clock"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/registry"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/rs/zerolog"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.FlightView, error)
	GetByID(ctx context.Context, id int64) (*domain.FlightView, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.FlightView, error)
	Delete(ctx context.Context, id int64) (*DeletionResult, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.FlightView, error)
	SetFlights(ctx context.Context, flights []domain.FlightView) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Service struct {
	reg      *registry.Registry
	store    repository.ModelStore
	cache    Cache
	producer Producer
	clock    clock.Clock
	log      zerolog.Logger
	topic    string
}

type CreateFlightInput struct {
	Number        string    `json:"number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departure_date"`
	Capacity      int       `json:"capacity"`
	BasePrice     float64   `json:"base_price"`
	// Force admits a flight whose number, route and date all match an
	// existing one, after the operator has confirmed the duplicate.
	Force bool `json:"force,omitempty"`
}

// DeletionResult reports what a cascading flight deletion did to every
// affected booking.
type DeletionResult struct {
	FlightID      int64              `json:"flight_id"`
	Cancellations []CancelledBooking `json:"cancellations"`
}

type CancelledBooking struct {
	Ref          string  `json:"ref"`
	CustomerID   int64   `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	// Partial marks a round trip that lost only its return leg and keeps
	// the outbound one.
	Partial  bool    `json:"partial"`
	Refund   float64 `json:"refund"`
	Retained float64 `json:"retained"`
}

func NewService(reg *registry.Registry, store repository.ModelStore, cache Cache, producer Producer, clk clock.Clock, log zerolog.Logger, topic string) *Service {
	return &Service{
		reg:      reg,
		store:    store,
		cache:    cache,
		producer: producer,
		clock:    clk,
		log:      log.With().Str("component", "flight_service").Logger(),
		topic:    topic,
	}
}

// List serves the priced flight listing, consulting the cache first. Prices
// are today's quotes against live occupancy.
func (s *Service) List(ctx context.Context) ([]domain.FlightView, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	s.reg.Lock()
	views := s.collectViews()
	s.reg.Unlock()

	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, views); err != nil {
			s.log.Warn().Err(err).Msg("flights cache set failed")
		}
	}
	return views, nil
}

func (s *Service) collectViews() []domain.FlightView {
	today := s.clock.Today()
	flights := s.reg.Flights()
	views := make([]domain.FlightView, 0, len(flights))
	for _, f := range flights {
		if f.Deleted {
			continue
		}
		v := f.View()
		v.CurrentPrice = pricing.QuoteFlight(f, today)
		views = append(views, v)
	}
	return views
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.FlightView, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	f := s.reg.FindFlight(id)
	if f == nil {
		return nil, domain.NotFoundf("flight with id %d not found", id)
	}
	v := f.View()
	v.CurrentPrice = pricing.QuoteFlight(f, s.clock.Today())
	return &v, nil
}

// Create adds a flight. Departure must lie between today and twelve months
// out; a flight duplicating an existing number, route and date is refused
// unless forced.
func (s *Service) Create(ctx context.Context, input CreateFlightInput) (*domain.FlightView, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	today := s.clock.Today()

	number := strings.TrimSpace(input.Number)
	origin := strings.TrimSpace(input.Origin)
	destination := strings.TrimSpace(input.Destination)
	if number == "" || origin == "" || destination == "" {
		return nil, domain.Invariantf("flight number, origin and destination are required")
	}
	if input.Capacity <= 0 {
		return nil, domain.Invariantf("capacity must be positive, got %d", input.Capacity)
	}
	if input.BasePrice < 0 {
		return nil, domain.Invariantf("base price cannot be negative, got %.2f", input.BasePrice)
	}
	if input.DepartureDate.Before(today) {
		return nil, domain.Invariantf("cannot add a flight departing in the past: departure %s, today %s",
			input.DepartureDate.Format("2006-01-02"), today.Format("2006-01-02"))
	}
	if input.DepartureDate.After(today.AddDate(0, 12, 0)) {
		return nil, domain.Invariantf("cannot add a flight more than 12 months in advance: departure %s", input.DepartureDate.Format("2006-01-02"))
	}

	if !input.Force {
		for _, existing := range s.reg.Flights() {
			if existing.Deleted {
				continue
			}
			if strings.EqualFold(existing.Number, number) &&
				strings.EqualFold(existing.Origin, origin) &&
				strings.EqualFold(existing.Destination, destination) &&
				existing.DepartureDate.Equal(input.DepartureDate) {
				return nil, domain.Invariantf("a flight with the same number, route and date already exists (flight %d); set force to add it anyway", existing.ID)
			}
		}
	}

	flight := domain.NewFlight(s.reg.NextFlightID(), number, origin, destination, input.DepartureDate, input.Capacity, input.BasePrice)
	if err := s.reg.AddFlight(flight); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, s.reg); err != nil {
		s.reg.DropFlight(flight.ID)
		s.log.Error().Err(err).Int64("flight_id", flight.ID).Msg("create flight rolled back")
		return nil, domain.PersistFailed(err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn().Err(err).Msg("flights cache invalidation failed")
		}
	}

	v := flight.View()
	v.CurrentPrice = pricing.QuoteFlight(flight, today)
	return &v, nil
}

// Delete soft-deletes a flight and resolves every booking that references
// it: full cancellation with full refund when the deleted flight is an
// outbound leg, a value split retaining the outbound's share when a round
// trip loses only its return leg.
func (s *Service) Delete(ctx context.Context, id int64) (*DeletionResult, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	today := s.clock.Today()

	flight := s.reg.FindFlight(id)
	if flight == nil {
		return nil, domain.NotFoundf("flight with id %d not found", id)
	}
	if flight.Deleted {
		return nil, domain.Invariantf("flight %d has already been deleted", id)
	}

	// A round trip whose outbound leg already departed is in progress;
	// deleting that leg would retroactively break it.
	for _, customer := range s.reg.Customers() {
		if customer.Deleted {
			continue
		}
		for _, b := range customer.Bookings() {
			if b.IsCancelled() || !b.IsRoundTrip() {
				continue
			}
			if b.OutboundFlightID == id && flight.HasDeparted(today) {
				return nil, domain.Invariantf("flight %d has already departed", id)
			}
		}
	}
	if flight.HasDeparted(today) {
		return nil, domain.Invariantf("flight %d has already departed", id)
	}

	var undo registry.UndoLog
	result := &DeletionResult{FlightID: id}
	var events []kafka.BookingEvent

	for _, customer := range s.reg.Customers() {
		if customer.Deleted {
			continue
		}
		for _, b := range customer.Bookings() {
			if b.IsCancelled() || !b.References(id) {
				continue
			}
			info := s.cancelForDeletion(b, customer, flight, today, &undo)
			result.Cancellations = append(result.Cancellations, info)
			events = append(events, kafka.BookingEvent{
				Type:                kafka.EventFlightDeleted,
				Ref:                 b.Ref,
				CustomerID:          b.CustomerID,
				OutboundFlightID:    b.OutboundFlightID,
				ReturnFlightID:      b.ReturnFlightID,
				Status:              string(b.Status),
				Price:               b.Price,
				CancellationFee:     b.CancellationFee,
				Refund:              b.RefundAmount(),
				PartialCancellation: b.PartialCancellation,
				Date:                today,
			})
		}
	}

	flight.Deleted = true
	undo.Record(func() { flight.Deleted = false })

	if err := s.store.Save(ctx, s.reg); err != nil {
		undo.Revert()
		s.log.Error().Err(err).Int64("flight_id", id).Msg("flight deletion rolled back")
		return nil, domain.PersistFailed(err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn().Err(err).Msg("flights cache invalidation failed")
		}
	}
	if s.producer != nil && s.topic != "" {
		for _, event := range events {
			if err := s.producer.Publish(ctx, s.topic, event.Ref, event); err != nil {
				s.log.Warn().Err(err).Str("ref", event.Ref).Msg("event publish failed")
			}
		}
	}

	s.log.Info().Int64("flight_id", id).Int("cancellations", len(result.Cancellations)).Msg("flight deleted")
	return result, nil
}

// cancelForDeletion mutates one affected booking, recording its pre-mutation
// snapshot so a failed commit restores it exactly.
func (s *Service) cancelForDeletion(b *domain.Booking, customer *domain.Customer, deleted *domain.Flight, today time.Time, undo *registry.UndoLog) CancelledBooking {
	prev := *b
	undo.Record(func() {
		b.Price = prev.Price
		b.CancellationFee = prev.CancellationFee
		b.Status = prev.Status
		b.ActionDate = prev.ActionDate
		b.PartialCancellation = prev.PartialCancellation
	})

	if b.IsRoundTrip() && b.ReturnFlightID == deleted.ID {
		// Only the return leg is gone: retain the outbound's share of the
		// frozen price, refund the rest. Shares are today's occupancies
		// priced at the original booking date.
		outbound := s.reg.FindFlight(b.OutboundFlightID)
		ret := s.reg.FindFlight(b.ReturnFlightID)
		retained := b.Price / 2
		if outbound != nil && ret != nil {
			outboundShare := pricing.QuoteFlight(outbound, b.BookingDate)
			returnShare := pricing.QuoteFlight(ret, b.BookingDate)
			if total := outboundShare + returnShare; total > 0 {
				retained = b.Price * outboundShare / total
			}
		}
		b.Status = domain.BookingStatusCancelled
		b.CancellationFee = retained
		b.PartialCancellation = true
		b.ActionDate = today
		return CancelledBooking{
			Ref:          b.Ref,
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Partial:      true,
			Refund:       b.RefundAmount(),
			Retained:     retained,
		}
	}

	// Outbound leg deleted (one-way or round trip): full cancellation with a
	// full refund. A rebooked booking also gets its rebooking fee back,
	// expressed as a negative fee so price minus fee covers both.
	wasRebooked := b.Status == domain.BookingStatusRebooked && b.CancellationFee > 0
	b.Status = domain.BookingStatusCancelled
	if wasRebooked {
		b.CancellationFee = -b.CancellationFee
	} else {
		b.CancellationFee = 0
	}
	b.ActionDate = today
	return CancelledBooking{
		Ref:          b.Ref,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Refund:       b.RefundAmount(),
	}
}

var _ FlightUseCase = (*Service)(nil)
