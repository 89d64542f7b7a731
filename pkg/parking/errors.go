package parking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the parking service.
var (
	ErrInvalidDuration          = errors.New("duration must be between 1 and 4 hours")
	ErrActiveReservationExists  = errors.New("user already has an active reservation")
	ErrDailyLimitReached        = errors.New("user already has a reservation for today")
	ErrSlotUnavailable          = errors.New("slot not available")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrConcurrentConflict       = errors.New("wallet balance changed concurrently")
	ErrSlotNotFound             = errors.New("slot not found")
	ErrAccountNotFound          = errors.New("account not found")
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrReservationClosed        = errors.New("reservation is not active")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
	ErrInvalidPrice             = errors.New("price per hour must be greater than zero")
	ErrInvalidSlotNumber        = errors.New("slot number is required")
	ErrDuplicateSlotNumber      = errors.New("slot number already exists")
	ErrInvalidLoginID           = errors.New("login id is required")
	ErrInvalidEmail             = errors.New("email is required")
	ErrDuplicateAccount         = errors.New("login id or email already registered")
	ErrInvalidSlotType          = errors.New("invalid slot type")
	ErrInvalidReservationStatus = errors.New("invalid reservation status")
	ErrInvalidLedgerKind        = errors.New("invalid ledger kind")
	ErrInvalidServiceConfig     = errors.New("invalid service config")
)

// FailureKind is the stable machine-readable error class exposed to callers.
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureInvalidDuration     FailureKind = "invalid_duration"
	FailureDuplicateActive     FailureKind = "duplicate_active"
	FailureDuplicateDaily      FailureKind = "duplicate_daily"
	FailureSlotUnavailable     FailureKind = "slot_unavailable"
	FailureInsufficientBalance FailureKind = "insufficient_balance"
	FailureConcurrentConflict  FailureKind = "concurrent_conflict"
	FailureInvalidAmount       FailureKind = "invalid_amount"
	FailureInvalidInput        FailureKind = "invalid_input"
	FailureDuplicate           FailureKind = "duplicate"
	FailureNotFound            FailureKind = "not_found"
	FailureInternal            FailureKind = "internal"
)

// KindOf classifies an error into the failure taxonomy. Unknown errors are
// internal: the atomic unit has rolled back and the caller sees no detail.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrInvalidDuration):
		return FailureInvalidDuration
	case errors.Is(err, ErrActiveReservationExists):
		return FailureDuplicateActive
	case errors.Is(err, ErrDailyLimitReached):
		return FailureDuplicateDaily
	case errors.Is(err, ErrSlotUnavailable):
		return FailureSlotUnavailable
	case errors.Is(err, ErrInsufficientBalance):
		return FailureInsufficientBalance
	case errors.Is(err, ErrConcurrentConflict):
		return FailureConcurrentConflict
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidPrice):
		return FailureInvalidAmount
	case errors.Is(err, ErrInvalidSlotType), errors.Is(err, ErrInvalidReservationStatus),
		errors.Is(err, ErrInvalidLedgerKind), errors.Is(err, ErrInvalidSlotNumber),
		errors.Is(err, ErrInvalidLoginID), errors.Is(err, ErrInvalidEmail):
		return FailureInvalidInput
	case errors.Is(err, ErrDuplicateSlotNumber), errors.Is(err, ErrDuplicateAccount):
		return FailureDuplicate
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrReservationNotFound):
		return FailureNotFound
	case errors.Is(err, ErrReservationClosed):
		return FailureNotFound
	}
	return FailureInternal
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
