// Package registry holds the in-memory model: every flight and customer
// addressed by id, with the uniqueness rules enforced on insert.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// Registry is the id->entity arena shared by all services. It is not
// internally synchronized: callers hold the single-writer lock (Lock/Unlock)
// for the whole of each operation, reads included, so booking, cancellation
// and deletion can never interleave on the same model.
type Registry struct {
	mu        sync.Mutex
	flights   map[int64]*domain.Flight
	customers map[int64]*domain.Customer
}

func New() *Registry {
	return &Registry{
		flights:   make(map[int64]*domain.Flight),
		customers: make(map[int64]*domain.Customer),
	}
}

func (r *Registry) Lock()   { r.mu.Lock() }
func (r *Registry) Unlock() { r.mu.Unlock() }

// FindFlight returns nil when the id is unknown; absence is not an error
// here, callers decide its severity.
func (r *Registry) FindFlight(id int64) *domain.Flight {
	return r.flights[id]
}

func (r *Registry) FindCustomer(id int64) *domain.Customer {
	return r.customers[id]
}

func (r *Registry) AddFlight(f *domain.Flight) error {
	if _, exists := r.flights[f.ID]; exists {
		return domain.Invariantf("duplicate flight id %d", f.ID)
	}
	r.flights[f.ID] = f
	return nil
}

// DropFlight removes a flight outright. Only used to undo an AddFlight that
// failed to persist; deletion in the business sense is the soft-delete flag.
func (r *Registry) DropFlight(id int64) {
	delete(r.flights, id)
}

// AddCustomer enforces id, phone and email uniqueness. Email comparison is
// case-insensitive; deleted customers do not block reuse of their details.
func (r *Registry) AddCustomer(c *domain.Customer) error {
	if _, exists := r.customers[c.ID]; exists {
		return domain.Invariantf("duplicate customer id %d", c.ID)
	}
	for _, existing := range r.customers {
		if existing.Deleted {
			continue
		}
		if existing.Phone == c.Phone {
			return domain.Invariantf("a customer with phone number %q already exists", c.Phone)
		}
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.Invariantf("a customer with email %q already exists", c.Email)
		}
	}
	r.customers[c.ID] = c
	return nil
}

func (r *Registry) DropCustomer(id int64) {
	delete(r.customers, id)
}

// PutCustomer inserts without the uniqueness checks. Reserved for replaying a
// snapshot whose rows already passed them when written: a deleted customer may
// legitimately share phone or email with a live successor.
func (r *Registry) PutCustomer(c *domain.Customer) {
	r.customers[c.ID] = c
}

// Flights returns all flights ordered by id, deleted ones included.
func (r *Registry) Flights() []*domain.Flight {
	out := make([]*domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Customers() []*domain.Customer {
	out := make([]*domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) NextFlightID() int64 {
	var max int64
	for id := range r.flights {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func (r *Registry) NextCustomerID() int64 {
	var max int64
	for id := range r.customers {
		if id > max {
			max = id
		}
	}
	return max + 1
}
