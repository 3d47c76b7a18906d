package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/cache"
	"github.com/tyhsiao/bookline/internal/model"
)

// LookupService answers customer and booking lookups through the index
// cache namespaces. Each index is a full in-memory map rebuilt wholesale
// from one store scan on miss or expiry; there is no incremental index
// maintenance.
type LookupService struct {
	bookings  BookingStore
	customers CustomerStore
	caches    *cache.Service
	ttl       time.Duration
	logger    *zap.Logger
}

func NewLookupService(bookings BookingStore, customers CustomerStore, caches *cache.Service, ttl time.Duration, logger *zap.Logger) *LookupService {
	return &LookupService{
		bookings:  bookings,
		customers: customers,
		caches:    caches,
		ttl:       ttl,
		logger:    logger,
	}
}

// CustomerByPhone returns the customer registered under phone, or nil.
func (s *LookupService) CustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	index, ok := s.caches.Customers.Get(cache.CustomerIndexKey)
	if !ok {
		var err error
		index, err = s.rebuildCustomerIndex(ctx)
		if err != nil {
			return nil, err
		}
	}

	if c, ok := index[phone]; ok {
		return &c, nil
	}
	return nil, nil
}

// BookingsByUser returns every booking of one external user identity.
func (s *LookupService) BookingsByUser(ctx context.Context, userID string) ([]model.BookingRecord, error) {
	index, ok := s.caches.Bookings.Get(cache.BookingIndexKey)
	if !ok {
		var err error
		index, err = s.rebuildBookingIndex(ctx)
		if err != nil {
			return nil, err
		}
	}

	return index[userID], nil
}

func (s *LookupService) rebuildCustomerIndex(ctx context.Context) (map[string]model.Customer, error) {
	customers, err := s.customers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild customer index: %w", err)
	}

	index := make(map[string]model.Customer, len(customers))
	for _, c := range customers {
		index[c.Phone] = c
	}
	s.caches.Customers.Set(cache.CustomerIndexKey, index, s.ttl)

	s.logger.Debug("Customer index rebuilt", zap.Int("customers", len(customers)))
	return index, nil
}

func (s *LookupService) rebuildBookingIndex(ctx context.Context) (map[string][]model.BookingRecord, error) {
	bookings, err := s.bookings.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild booking index: %w", err)
	}

	index := make(map[string][]model.BookingRecord)
	for _, b := range bookings {
		index[b.UserID] = append(index[b.UserID], b)
	}
	s.caches.Bookings.Set(cache.BookingIndexKey, index, s.ttl)

	s.logger.Debug("Booking index rebuilt", zap.Int("bookings", len(bookings)))
	return index, nil
}
