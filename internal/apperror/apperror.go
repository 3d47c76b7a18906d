// Package apperror defines the compact error taxonomy shared by the
// services and the HTTP surface.
package apperror

import (
	"errors"
	"net/http"
)

// Error codes.
const (
	CodeUpstreamUnavailable = "upstream_unavailable" // calendar API unreachable
	CodeInvalidDateFormat   = "invalid_date_format"  // caller input error
	CodeRangeTooLarge       = "range_too_large"      // caller input error
	CodeLockTimeout         = "lock_timeout"         // transient contention, retryable
	CodeSlotConflict        = "slot_conflict"        // slot already taken
	CodeValidation          = "validation_error"     // missing/malformed booking fields
)

// Error is the compact error payload returned by the API and used
// internally. It implements the error interface.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func New(code, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

func UpstreamUnavailable(message string) *Error {
	return New(CodeUpstreamUnavailable, message, nil)
}

func InvalidDateFormat(message string) *Error {
	return New(CodeInvalidDateFormat, message, nil)
}

func RangeTooLarge(message string, details map[string]any) *Error {
	return New(CodeRangeTooLarge, message, details)
}

func LockTimeout() *Error {
	return New(CodeLockTimeout, "booking store is busy, try again shortly", nil)
}

func SlotConflict(details map[string]any) *Error {
	return New(CodeSlotConflict, "the requested time slot is no longer available", details)
}

func Validation(message string, details map[string]any) *Error {
	return New(CodeValidation, message, details)
}

// CodeOf returns the taxonomy code of err, unwrapping through %w chains,
// or "" when err carries no *Error.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// From returns the *Error inside err, or a generic internal one. The
// original text stays in the logs; clients never see driver detail.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: "internal", Message: "internal error"}
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidDateFormat, CodeRangeTooLarge, CodeValidation:
		return http.StatusBadRequest
	case CodeSlotConflict:
		return http.StatusConflict
	case CodeLockTimeout, CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
