package customers

import (
	"context"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/registry"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/rs/zerolog"
)

type CustomerUseCase interface {
	Create(ctx context.Context, input CreateCustomerInput) (*CustomerView, error)
	GetByID(ctx context.Context, id int64) (*CustomerView, error)
	List(ctx context.Context) ([]CustomerView, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	reg   *registry.Registry
	store repository.ModelStore
	log   zerolog.Logger
}

type CreateCustomerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type CustomerView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Deleted bool   `json:"deleted"`
}

func NewService(reg *registry.Registry, store repository.ModelStore, log zerolog.Logger) *Service {
	return &Service{reg: reg, store: store, log: log.With().Str("component", "customer_service").Logger()}
}

func (s *Service) Create(ctx context.Context, input CreateCustomerInput) (*CustomerView, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	email := strings.TrimSpace(input.Email)
	if name == "" || phone == "" || email == "" {
		return nil, domain.Invariantf("name, phone and email are required")
	}

	customer := domain.NewCustomer(s.reg.NextCustomerID(), name, phone, email)
	if err := s.reg.AddCustomer(customer); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, s.reg); err != nil {
		s.reg.DropCustomer(customer.ID)
		s.log.Error().Err(err).Int64("customer_id", customer.ID).Msg("create customer rolled back")
		return nil, domain.PersistFailed(err)
	}

	v := view(customer)
	return &v, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*CustomerView, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	customer := s.reg.FindCustomer(id)
	if customer == nil {
		return nil, domain.NotFoundf("customer with id %d not found", id)
	}
	v := view(customer)
	return &v, nil
}

func (s *Service) List(ctx context.Context) ([]CustomerView, error) {
	s.reg.Lock()
	defer s.reg.Unlock()

	all := s.reg.Customers()
	out := make([]CustomerView, 0, len(all))
	for _, c := range all {
		if c.Deleted {
			continue
		}
		out = append(out, view(c))
	}
	return out, nil
}

// Delete soft-deletes a customer. Their booking history stays in the model.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.reg.Lock()
	defer s.reg.Unlock()

	customer := s.reg.FindCustomer(id)
	if customer == nil {
		return domain.NotFoundf("customer with id %d not found", id)
	}
	if customer.Deleted {
		return domain.Invariantf("customer %d has already been deleted", id)
	}

	customer.Deleted = true
	if err := s.store.Save(ctx, s.reg); err != nil {
		customer.Deleted = false
		s.log.Error().Err(err).Int64("customer_id", id).Msg("delete customer rolled back")
		return domain.PersistFailed(err)
	}
	return nil
}

func view(c *domain.Customer) CustomerView {
	return CustomerView{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Deleted: c.Deleted}
}

var _ CustomerUseCase = (*Service)(nil)
