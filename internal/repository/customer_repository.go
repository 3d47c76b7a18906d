package repository

import (
	"context"
	"fmt"

	"github.com/tyhsiao/bookline/internal/model"
	"github.com/tyhsiao/bookline/internal/repository/base"
)

type CustomerRepository struct {
	*base.Repository
}

func NewCustomerRepository(handles *base.HandleProvider) *CustomerRepository {
	return &CustomerRepository{Repository: base.NewRepository(handles)}
}

// GetByUserID returns one customer, or nil when none exists.
func (r *CustomerRepository) GetByUserID(ctx context.Context, userID string) (*model.Customer, error) {
	query := `
		SELECT line_user_id, name, phone, created_at, last_booking_at, total_bookings
		FROM customers
		WHERE line_user_id = $1
	`

	row, err := r.QueryRow(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	var c model.Customer
	err = row.Scan(&c.UserID, &c.Name, &c.Phone, &c.CreatedAt, &c.LastBookingAt, &c.TotalBookings)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by user id: %w", err)
	}

	return &c, nil
}

// RecordBooking upserts the customer and bumps the aggregate booking
// counters in one statement.
func (r *CustomerRepository) RecordBooking(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (line_user_id, name, phone, last_booking_at, total_bookings)
		VALUES ($1, $2, $3, now(), 1)
		ON CONFLICT (line_user_id) DO UPDATE
		SET name = EXCLUDED.name,
		    phone = EXCLUDED.phone,
		    last_booking_at = now(),
		    total_bookings = customers.total_bookings + 1
		RETURNING created_at, last_booking_at, total_bookings
	`

	row, err := r.QueryRow(ctx, query, c.UserID, c.Name, c.Phone)
	if err != nil {
		return err
	}
	if err := row.Scan(&c.CreatedAt, &c.LastBookingAt, &c.TotalBookings); err != nil {
		return fmt.Errorf("record booking for customer: %w", err)
	}

	return nil
}

// All scans the whole customers table; the lookup index is rebuilt
// wholesale from this at the declared scale of hundreds of records.
func (r *CustomerRepository) All(ctx context.Context) ([]model.Customer, error) {
	query := `
		SELECT line_user_id, name, phone, created_at, last_booking_at, total_bookings
		FROM customers
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scan customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.UserID, &c.Name, &c.Phone, &c.CreatedAt, &c.LastBookingAt, &c.TotalBookings); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, c)
	}

	return customers, rows.Err()
}
