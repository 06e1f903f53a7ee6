// Package apperror provides domain-specific error types for OuiSite.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate JSON responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// Machine-readable reason codes. Clients branch on these for UX flows
// (upsell screens, "resend verification" prompts) instead of parsing
// human-readable messages.
const (
	// ReasonEmailUnverified accompanies the 403 returned when a login
	// presented the correct password but the account's email has not been
	// verified yet. The client can offer a "resend verification" action.
	ReasonEmailUnverified = "EMAIL_UNVERIFIED"

	// ReasonPremiumRequired accompanies the 403 returned when a route is
	// gated on the premium plan. Distinct from a generic 403 so the client
	// can route to an upsell flow rather than a dead end.
	ReasonPremiumRequired = "PREMIUM_REQUIRED"

	// ReasonSlugRequired accompanies the 400 returned when tenant
	// resolution is ambiguous: the user owns several weddings and sent no
	// x-wedding-slug header.
	ReasonSlugRequired = "WEDDING_SLUG_REQUIRED"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Reason is an optional machine-readable branch code (e.g.,
	// "PREMIUM_REQUIRED"). Empty for errors the client has no special
	// handling for.
	Reason string `json:"reason,omitempty"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithReason attaches a machine-readable reason code and returns the error
// for chaining.
func (e *AppError) WithReason(reason string) *AppError {
	e.Reason = reason
	return e
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewValidation creates a 400 error for input validation failures. Field
// detail is safe to expose since it describes the caller's own request.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "validation_error",
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "forbidden",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewTooManyRequests creates a 429 error with a generic throttling message.
// Deliberately carries no quota detail so callers can't tune abuse patterns
// against the limiter.
func NewTooManyRequests() *AppError {
	return &AppError{
		Code:    http.StatusTooManyRequests,
		Type:    "rate_limited",
		Message: "Too many requests. Please try again later.",
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// IsNotFound reports whether err is an AppError with a 404 code.
func IsNotFound(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == http.StatusNotFound
}
