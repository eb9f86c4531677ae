package repository

import "context"

// None of the foreign keys are deferrable: snapshot writes must insert
// customers and flights before flight_passengers and bookings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS flights (
		id BIGINT PRIMARY KEY,
		number TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		departure_date DATE NOT NULL,
		capacity INT NOT NULL,
		base_price DOUBLE PRECISION NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		ref UUID PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers (id),
		outbound_flight_id BIGINT NOT NULL REFERENCES flights (id),
		return_flight_id BIGINT REFERENCES flights (id),
		booking_date DATE NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		cancellation_fee DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		action_date DATE NOT NULL,
		partial_cancellation BOOLEAN NOT NULL DEFAULT FALSE,
		position INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flight_passengers (
		flight_id BIGINT NOT NULL REFERENCES flights (id),
		customer_id BIGINT NOT NULL REFERENCES customers (id),
		PRIMARY KEY (flight_id, customer_id)
	)`,
}

// InitSchema creates the snapshot tables if they do not exist yet.
func (s *PGStore) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
