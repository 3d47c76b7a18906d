package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/apperror"
	"github.com/tyhsiao/bookline/internal/model"
	"github.com/tyhsiao/bookline/internal/service"
)

type stubAvailability struct {
	day      map[string]model.AvailabilityRecord
	dayErr   error
	batch    *service.BatchResult
	batchErr error
}

func (s *stubAvailability) CheckDay(_ context.Context, _ string, _ []string) (map[string]model.AvailabilityRecord, error) {
	return s.day, s.dayErr
}

func (s *stubAvailability) BatchAvailability(_ context.Context, _, _ string) (*service.BatchResult, error) {
	return s.batch, s.batchErr
}

type stubBookings struct {
	booking *model.BookingRecord
	warning string
	err     error
	got     service.BookingRequest
}

func (s *stubBookings) Commit(_ context.Context, req service.BookingRequest) (*model.BookingRecord, string, error) {
	s.got = req
	return s.booking, s.warning, s.err
}

type stubLookup struct {
	customer *model.Customer
	bookings []model.BookingRecord
	err      error
}

func (s *stubLookup) CustomerByPhone(_ context.Context, _ string) (*model.Customer, error) {
	return s.customer, s.err
}

func (s *stubLookup) BookingsByUser(_ context.Context, _ string) ([]model.BookingRecord, error) {
	return s.bookings, s.err
}

type stubSettings struct{ values map[string]string }

func (s *stubSettings) Value(_ context.Context, key, def string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func newTestServer(av AvailabilityAPI, bk BookingAPI, lk LookupAPI) http.Handler {
	if av == nil {
		av = &stubAvailability{}
	}
	if bk == nil {
		bk = &stubBookings{}
	}
	if lk == nil {
		lk = &stubLookup{}
	}
	return NewServer(av, bk, lk, &stubSettings{}, zap.NewNop()).Routes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	payload, ok := decodeBody(t, rec)["error"].(map[string]any)
	if !ok {
		t.Fatal("response carries no error object")
	}
	code, _ := payload["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	h := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCheckDay_MissingParams(t *testing.T) {
	h := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability?date=2025-07-15", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheckDay_OK(t *testing.T) {
	av := &stubAvailability{day: map[string]model.AvailabilityRecord{
		"14:00": {Date: "2025-07-15", Time: "14:00", Available: true},
	}}
	h := newTestServer(av, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability?date=2025-07-15&times=14:00", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	times, ok := body["times"].(map[string]any)
	if !ok || len(times) != 1 {
		t.Errorf("times = %v, want one entry", body["times"])
	}
}

func TestCheckDay_UpstreamFailureDegradesTo200(t *testing.T) {
	av := &stubAvailability{dayErr: apperror.UpstreamUnavailable("calendar unreachable")}
	h := newTestServer(av, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability?date=2025-07-15&times=14:00", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want degraded 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["warning"] == "" || body["warning"] == nil {
		t.Error("degraded response carries no warning")
	}
}

func TestCheckDay_BadDate400(t *testing.T) {
	av := &stubAvailability{dayErr: apperror.InvalidDateFormat("invalid date")}
	h := newTestServer(av, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability?date=bad&times=14:00", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := errorCode(t, rec); got != apperror.CodeInvalidDateFormat {
		t.Errorf("code = %v, want invalid_date_format", got)
	}
}

func TestBatchAvailability_RangeTooLarge400(t *testing.T) {
	av := &stubAvailability{batchErr: apperror.RangeTooLarge("too many days", map[string]any{"days": 63})}
	h := newTestServer(av, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability/range?start=2025-07-01&end=2025-09-01", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := errorCode(t, rec); got != apperror.CodeRangeTooLarge {
		t.Errorf("code = %v, want range_too_large", got)
	}
}

func TestCommitBooking_RequiresCSRFHeader(t *testing.T) {
	h := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d without CSRF header, want 403", rec.Code)
	}
}

func TestCommitBooking_Created(t *testing.T) {
	bk := &stubBookings{booking: &model.BookingRecord{ID: "bk-1"}}
	h := newTestServer(nil, bk, nil)

	payload := `{"userId":"U1","name":"林小美","phone":"0912345678","date":"2025-07-15","time":"14:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(payload))
	req.Header.Set("X-CSRF-Token", "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["bookingId"] != "bk-1" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["warning"]; ok {
		t.Error("clean commit carries a warning")
	}
	if bk.got.UserID != "U1" || bk.got.Time != "14:00" {
		t.Errorf("decoded request = %+v", bk.got)
	}
}

func TestCommitBooking_WarningPassedThrough(t *testing.T) {
	bk := &stubBookings{
		booking: &model.BookingRecord{ID: "bk-1"},
		warning: "booking saved, calendar event creation failed",
	}
	h := newTestServer(nil, bk, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"userId":"U1"}`))
	req.Header.Set("X-CSRF-Token", "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	if body["warning"] != bk.warning {
		t.Errorf("warning = %v, want %q", body["warning"], bk.warning)
	}
}

func TestCommitBooking_Conflict409(t *testing.T) {
	bk := &stubBookings{err: apperror.SlotConflict(map[string]any{"date": "2025-07-15", "time": "14:00"})}
	h := newTestServer(nil, bk, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"userId":"U1"}`))
	req.Header.Set("X-CSRF-Token", "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestCommitBooking_LockTimeout503(t *testing.T) {
	bk := &stubBookings{err: apperror.LockTimeout()}
	h := newTestServer(nil, bk, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"userId":"U1"}`))
	req.Header.Set("X-CSRF-Token", "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCommitBooking_MalformedBody400(t *testing.T) {
	h := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{not json`))
	req.Header.Set("X-CSRF-Token", "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBookingsByUser_NilBecomesEmptyList(t *testing.T) {
	h := newTestServer(nil, nil, &stubLookup{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings?userId=U1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	list, ok := body["bookings"].([]any)
	if !ok {
		t.Fatalf("bookings = %v, want a JSON array", body["bookings"])
	}
	if len(list) != 0 {
		t.Errorf("got %d bookings, want 0", len(list))
	}
}

func TestCustomerByPhone_NotFound404(t *testing.T) {
	h := newTestServer(nil, nil, &stubLookup{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/customers?phone=0900000000", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCustomerByPhone_Found(t *testing.T) {
	lk := &stubLookup{customer: &model.Customer{UserID: "U1", Phone: "0912345678"}}
	h := newTestServer(nil, nil, lk)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/customers?phone=0912345678", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestInternalErrorsAreNotEchoedToClients(t *testing.T) {
	lk := &stubLookup{err: errors.New(`connect to "postgres://shop:secret@db:5432": connection refused`)}
	h := newTestServer(nil, nil, lk)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/customers?phone=0912345678", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "postgres") || strings.Contains(body, "secret") {
		t.Errorf("response leaks driver detail: %s", body)
	}
	payload, _ := decodeBody(t, rec)["error"].(map[string]any)
	if payload["message"] != "internal error" {
		t.Errorf("message = %v, want the generic internal error", payload["message"])
	}
}

func TestGetRequestsSkipCSRFCheck(t *testing.T) {
	h := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code == http.StatusForbidden {
		t.Error("GET request rejected by CSRF presence check")
	}
}
