package model

import "time"

// Customer aggregates the bookings of one external user identity.
type Customer struct {
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	CreatedAt     time.Time  `json:"created_at"`
	LastBookingAt *time.Time `json:"last_booking_at"`
	TotalBookings int        `json:"total_bookings"`
}
