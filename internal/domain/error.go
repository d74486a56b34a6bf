package domain

import (
	"errors"
	"strings"
)

var (
	// Error kinds. Every error returned by a use case either is, or wraps, one of these.
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("not authorized")
	ErrNotFound   = errors.New("entity not found")
	ErrConflict   = errors.New("state conflict")

	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidArgument = errors.New("invalid argument")

	// Infra-level errors surfaced by repositories.
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

var (
	ErrCouponNotFound   = NotFound("Coupon not found")
	ErrPurchaseNotFound = NotFound("Purchase not found")

	// ErrCouponUnavailable is returned when the coupon was sold, rejected or sent back to
	// review underneath a purchase flow. Transports surface it distinctly.
	ErrCouponUnavailable = Conflict("Coupon is no longer available")

	// ErrCouponNotForSale is a purchase request against a coupon that is not approved.
	ErrCouponNotForSale = Conflict("Coupon is not available for purchase")

	// ErrDuplicatePurchase guards the one-active-purchase-per-(coupon, buyer) rule.
	ErrDuplicatePurchase = Conflict("Purchase request already exists")
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a human-readable message and the kind it belongs to.
type Error struct {
	Kind    error
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Fields: fields}
}

func Forbidden(msg string) *Error { return &Error{Kind: ErrForbidden, Message: msg} }
func NotFound(msg string) *Error  { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) *Error  { return &Error{Kind: ErrConflict, Message: msg} }

// Message returns the client-facing message of err, or fallback when err is not a domain error.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
