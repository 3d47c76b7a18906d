package cache

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tyhsiao/bookline/internal/model"
)

// Index cache keys. Each index namespace holds one wholesale map rebuilt by
// a full store scan; a write invalidates the whole namespace rather than
// patching it.
const (
	CustomerIndexKey = "customers_by_phone"
	BookingIndexKey  = "bookings_by_user"
)

// Service bundles the four independent cache namespaces. Writers to the
// backing store must invalidate their own namespace; the other namespaces
// are untouched.
type Service struct {
	Config    *Cache[string]
	Store     *Cache[*pgxpool.Pool]
	Customers *Cache[map[string]model.Customer]
	Bookings  *Cache[map[string][]model.BookingRecord]
}

func NewService(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		Config:    NewWithClock[string](now),
		Store:     NewWithClock[*pgxpool.Pool](now),
		Customers: NewWithClock[map[string]model.Customer](now),
		Bookings:  NewWithClock[map[string][]model.BookingRecord](now),
	}
}

func (s *Service) InvalidateCustomerIndex() {
	s.Customers.Invalidate(CustomerIndexKey)
}

func (s *Service) InvalidateBookingIndex() {
	s.Bookings.Invalidate(BookingIndexKey)
}

// Sweep evicts expired entries across all namespaces.
func (s *Service) Sweep() int {
	return s.Config.Sweep() + s.Store.Sweep() + s.Customers.Sweep() + s.Bookings.Sweep()
}
