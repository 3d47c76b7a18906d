package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/apperror"
	"github.com/tyhsiao/bookline/internal/model"
	"github.com/tyhsiao/bookline/internal/service"
)

func (s *Server) handleCheckDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	timesParam := r.URL.Query().Get("times")
	if date == "" || timesParam == "" {
		writeError(w, apperror.Validation("date and times query parameters are required", nil))
		return
	}

	times := strings.Split(timesParam, ",")
	records, err := s.availability.CheckDay(r.Context(), date, times)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeUpstreamUnavailable {
			// Display path degrades to "show nothing" instead of failing.
			writeJSON(w, http.StatusOK, map[string]any{
				"times":   map[string]any{},
				"warning": "calendar temporarily unavailable",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"times": records})
}

func (s *Server) handleBatchAvailability(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, apperror.Validation("start and end query parameters are required", nil))
		return
	}

	result, err := s.availability.BatchAvailability(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCommitBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("malformed booking payload", nil))
		return
	}

	booking, warning, err := s.bookings.Commit(r.Context(), req)
	if err != nil {
		s.logger.Warn("Booking commit rejected",
			zap.String("user_id", req.UserID),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"success":   true,
		"bookingId": booking.ID,
	}
	if warning != "" {
		resp["warning"] = warning
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleBookingsByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, apperror.Validation("userId query parameter is required", nil))
		return
	}

	bookings, err := s.lookup.BookingsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if bookings == nil {
		bookings = []model.BookingRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleCustomerByPhone(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeError(w, apperror.Validation("phone query parameter is required", nil))
		return
	}

	customer, err := s.lookup.CustomerByPhone(r.Context(), phone)
	if err != nil {
		writeError(w, err)
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"customer": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (s *Server) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	shopName, err := s.settings.Value(r.Context(), "shop_name", "")
	if err != nil {
		writeError(w, err)
		return
	}
	announcement, err := s.settings.Value(r.Context(), "announcement", "")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shopName":     shopName,
		"announcement": announcement,
	})
}
