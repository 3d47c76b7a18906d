// Package controller exposes the booking query endpoint to the
// presentation layer as a JSON HTTP API.
package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/model"
	"github.com/tyhsiao/bookline/internal/service"
)

type AvailabilityAPI interface {
	CheckDay(ctx context.Context, date string, times []string) (map[string]model.AvailabilityRecord, error)
	BatchAvailability(ctx context.Context, startDate, endDate string) (*service.BatchResult, error)
}

type BookingAPI interface {
	Commit(ctx context.Context, req service.BookingRequest) (*model.BookingRecord, string, error)
}

type LookupAPI interface {
	CustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)
	BookingsByUser(ctx context.Context, userID string) ([]model.BookingRecord, error)
}

type SettingsAPI interface {
	Value(ctx context.Context, key, def string) (string, error)
}

type Server struct {
	availability AvailabilityAPI
	bookings     BookingAPI
	lookup       LookupAPI
	settings     SettingsAPI
	logger       *zap.Logger
}

func NewServer(availability AvailabilityAPI, bookings BookingAPI, lookup LookupAPI, settings SettingsAPI, logger *zap.Logger) *Server {
	return &Server{
		availability: availability,
		bookings:     bookings,
		lookup:       lookup,
		settings:     settings,
		logger:       logger,
	}
}

// Routes assembles the handler tree with logging and CSRF-presence
// middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/availability", s.handleCheckDay)
	mux.HandleFunc("GET /api/availability/range", s.handleBatchAvailability)
	mux.HandleFunc("POST /api/bookings", s.handleCommitBooking)
	mux.HandleFunc("GET /api/bookings", s.handleBookingsByUser)
	mux.HandleFunc("GET /api/customers", s.handleCustomerByPhone)
	mux.HandleFunc("GET /api/settings/public", s.handlePublicSettings)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.withLogging(s.withCSRFPresence(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
