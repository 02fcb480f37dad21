// Package apierror provides standardized error response structures for the API
// plus the typed domain errors returned by the ledger services. All errors
// returned to clients go through this package to ensure consistency and to
// prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	// Code identifies the constraint that failed, so the calling UI can
	// render a precise message ("insufficient_stock", "over_return", …).
	Code string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}

// ── Typed domain errors ───────────────────────────────────────────────────────
// Each carries the entity and constraint that failed. Business-rule errors are
// expected outcomes: they are returned to the caller, never retried with
// different data.

// InsufficientStockError rejects a sale line whose quantity exceeds the
// product's current stock.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// OverReturnError rejects a return line whose quantity exceeds what remains
// returnable on the original sale line.
type OverReturnError struct {
	SaleLineID uuid.UUID
	Requested  int
	Remaining  int
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("over-return on sale line %s: requested %d, remaining %d",
		e.SaleLineID, e.Requested, e.Remaining)
}

// ShiftAlreadyOpenError rejects opening a second shift on a register.
type ShiftAlreadyOpenError struct {
	RegisterID int
}

func (e *ShiftAlreadyOpenError) Error() string {
	return fmt.Sprintf("register %d already has an open shift", e.RegisterID)
}

// ShiftNotOpenError rejects a sale/return/close against a shift that is not open.
type ShiftNotOpenError struct {
	ShiftID uuid.UUID
}

func (e *ShiftNotOpenError) Error() string {
	return fmt.Sprintf("shift %s is not open", e.ShiftID)
}

// ConsistencyViolationError means recorded stock and the movement ledger
// disagree. It is fatal for the product: writes are frozen until an operator
// investigates. Never swallowed, never auto-repaired.
type ConsistencyViolationError struct {
	ProductID uuid.UUID
	Expected  int // last recorded new_stock in the ledger
	Got       int // previous stock observed by the writer
}

func (e *ConsistencyViolationError) Error() string {
	return fmt.Sprintf("ledger consistency violation on product %s: ledger says %d, store says %d",
		e.ProductID, e.Expected, e.Got)
}

// ConflictRetryExceededError surfaces after bounded retries of a
// serialization/deadlock conflict.
type ConflictRetryExceededError struct {
	Attempts int
}

func (e *ConflictRetryExceededError) Error() string {
	return fmt.Sprintf("write conflict persisted after %d attempts", e.Attempts)
}

// ProductFrozenError rejects writes to a product halted by a previous
// consistency violation.
type ProductFrozenError struct {
	ProductID uuid.UUID
}

func (e *ProductFrozenError) Error() string {
	return fmt.Sprintf("product %s is frozen pending ledger investigation", e.ProductID)
}

// ── HTTP mapping ──────────────────────────────────────────────────────────────

// FromErr converts a service error into (status, envelope) for handlers.
// Unknown errors map to 400 with the error text, matching the rest of the
// handler layer; 5xx classification is reserved for consistency violations
// and exhausted conflicts.
func FromErr(err error) (int, *APIError) {
	var (
		insufficient *InsufficientStockError
		overReturn   *OverReturnError
		shiftOpen    *ShiftAlreadyOpenError
		shiftNotOpen *ShiftNotOpenError
		consistency  *ConsistencyViolationError
		conflict     *ConflictRetryExceededError
		frozen       *ProductFrozenError
	)
	switch {
	case errors.As(err, &insufficient):
		return http.StatusConflict, &APIError{Detail: err.Error(), Code: "insufficient_stock"}
	case errors.As(err, &overReturn):
		return http.StatusConflict, &APIError{Detail: err.Error(), Code: "over_return"}
	case errors.As(err, &shiftOpen):
		return http.StatusConflict, &APIError{Detail: err.Error(), Code: "shift_already_open"}
	case errors.As(err, &shiftNotOpen):
		return http.StatusConflict, &APIError{Detail: err.Error(), Code: "shift_not_open"}
	case errors.As(err, &frozen):
		return http.StatusConflict, &APIError{Detail: err.Error(), Code: "product_frozen"}
	case errors.As(err, &consistency):
		return http.StatusInternalServerError, &APIError{Detail: err.Error(), Code: "consistency_violation"}
	case errors.As(err, &conflict):
		return http.StatusServiceUnavailable, &APIError{Detail: err.Error(), Code: "conflict_retry_exceeded"}
	default:
		return http.StatusBadRequest, New(err.Error())
	}
}
