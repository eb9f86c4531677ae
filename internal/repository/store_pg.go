package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/registry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModelStore is the persistence boundary of the core: the whole model is
// handed over once at the end of every mutating operation and the write is
// all-or-nothing from the core's perspective.
type ModelStore interface {
	Save(ctx context.Context, reg *registry.Registry) error
}

// PGStore persists the model as a snapshot inside a single transaction,
// mirroring the rewrite-everything semantics of the flat-file storage this
// system replaced. Callers hold the registry lock across Save.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Save(ctx context.Context, reg *registry.Registry) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, st := range snapshotStatements(reg) {
		if _, err := tx.Exec(ctx, st.sql, st.args...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

type snapshotStmt struct {
	sql  string
	args []any
}

// snapshotStatements lays out the full rewrite as an ordered statement list.
// The foreign keys are not deferrable, so the order is load-bearing both ways:
// children are deleted before their parents and re-inserted after them —
// customers and flights must exist before any flight_passengers or bookings
// row that references them.
func snapshotStatements(reg *registry.Registry) []snapshotStmt {
	stmts := []snapshotStmt{
		{sql: "DELETE FROM bookings"},
		{sql: "DELETE FROM flight_passengers"},
		{sql: "DELETE FROM flights"},
		{sql: "DELETE FROM customers"},
	}

	for _, c := range reg.Customers() {
		stmts = append(stmts, snapshotStmt{
			sql:  `INSERT INTO customers (id, name, phone, email, deleted) VALUES ($1, $2, $3, $4, $5)`,
			args: []any{c.ID, c.Name, c.Phone, c.Email, c.Deleted},
		})
	}

	for _, f := range reg.Flights() {
		stmts = append(stmts, snapshotStmt{
			sql: `INSERT INTO flights (id, number, origin, destination, departure_date, capacity, base_price, deleted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			args: []any{f.ID, f.Number, f.Origin, f.Destination, f.DepartureDate, f.Capacity, f.BasePrice, f.Deleted},
		})
	}
	for _, f := range reg.Flights() {
		for _, customerID := range f.PassengerIDs() {
			stmts = append(stmts, snapshotStmt{
				sql:  `INSERT INTO flight_passengers (flight_id, customer_id) VALUES ($1, $2)`,
				args: []any{f.ID, customerID},
			})
		}
	}

	for _, c := range reg.Customers() {
		for position, b := range c.Bookings() {
			var returnID *int64
			if b.ReturnFlightID != 0 {
				returnID = &b.ReturnFlightID
			}
			stmts = append(stmts, snapshotStmt{
				sql: `INSERT INTO bookings (ref, customer_id, outbound_flight_id, return_flight_id, booking_date, price, cancellation_fee, status, action_date, partial_cancellation, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				args: []any{b.Ref, b.CustomerID, b.OutboundFlightID, returnID, b.BookingDate, b.Price, b.CancellationFee, string(b.Status), b.ActionDate, b.PartialCancellation, position},
			})
		}
	}

	return stmts
}

// Load rebuilds the in-memory model from the last snapshot.
func (s *PGStore) Load(ctx context.Context) (*registry.Registry, error) {
	reg := registry.New()

	rows, err := s.db.Query(ctx, `SELECT id, number, origin, destination, departure_date, capacity, base_price, deleted FROM flights ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id        int64
			number    string
			origin    string
			dest      string
			departure time.Time
			capacity  int
			basePrice float64
			deleted   bool
		)
		if err := rows.Scan(&id, &number, &origin, &dest, &departure, &capacity, &basePrice, &deleted); err != nil {
			return nil, err
		}
		f := domain.NewFlight(id, number, origin, dest, departure.UTC(), capacity, basePrice)
		f.Deleted = deleted
		if err := reg.AddFlight(f); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	custRows, err := s.db.Query(ctx, `SELECT id, name, phone, email, deleted FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer custRows.Close()
	var customers []*domain.Customer
	for custRows.Next() {
		c := &domain.Customer{}
		if err := custRows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Deleted); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := custRows.Err(); err != nil {
		return nil, err
	}
	// Uniqueness was enforced when the snapshot was written; replay customers
	// directly so a deleted customer sharing details with a live one loads.
	for _, c := range customers {
		reg.PutCustomer(c)
	}

	bookingRows, err := s.db.Query(ctx, `SELECT ref, customer_id, outbound_flight_id, return_flight_id, booking_date, price, cancellation_fee, status, action_date, partial_cancellation FROM bookings ORDER BY customer_id, position`)
	if err != nil {
		return nil, err
	}
	defer bookingRows.Close()
	for bookingRows.Next() {
		var (
			b        domain.Booking
			returnID *int64
			status   string
		)
		if err := bookingRows.Scan(&b.Ref, &b.CustomerID, &b.OutboundFlightID, &returnID, &b.BookingDate, &b.Price, &b.CancellationFee, &status, &b.ActionDate, &b.PartialCancellation); err != nil {
			return nil, err
		}
		if returnID != nil {
			b.ReturnFlightID = *returnID
		}
		b.Status = domain.BookingStatus(status)
		b.BookingDate = b.BookingDate.UTC()
		b.ActionDate = b.ActionDate.UTC()
		customer := reg.FindCustomer(b.CustomerID)
		if customer == nil {
			return nil, domain.NotFoundf("booking %s references unknown customer %d", b.Ref, b.CustomerID)
		}
		booking := b
		customer.AddBooking(&booking)
	}
	if err := bookingRows.Err(); err != nil {
		return nil, err
	}

	paxRows, err := s.db.Query(ctx, `SELECT flight_id, customer_id FROM flight_passengers`)
	if err != nil {
		return nil, err
	}
	defer paxRows.Close()
	for paxRows.Next() {
		var flightID, customerID int64
		if err := paxRows.Scan(&flightID, &customerID); err != nil {
			return nil, err
		}
		f := reg.FindFlight(flightID)
		if f == nil {
			return nil, domain.NotFoundf("passenger row references unknown flight %d", flightID)
		}
		if err := f.AddPassenger(customerID); err != nil {
			return nil, err
		}
	}
	return reg, paxRows.Err()
}

var _ ModelStore = (*PGStore)(nil)
