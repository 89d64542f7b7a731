package parking

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassifiesDomainErrors(test *testing.T) {
	test.Parallel()
	cases := []struct {
		err      error
		expected FailureKind
	}{
		{err: nil, expected: FailureNone},
		{err: ErrInvalidDuration, expected: FailureInvalidDuration},
		{err: ErrActiveReservationExists, expected: FailureDuplicateActive},
		{err: ErrDailyLimitReached, expected: FailureDuplicateDaily},
		{err: ErrSlotUnavailable, expected: FailureSlotUnavailable},
		{err: ErrInsufficientBalance, expected: FailureInsufficientBalance},
		{err: ErrConcurrentConflict, expected: FailureConcurrentConflict},
		{err: ErrInvalidAmount, expected: FailureInvalidAmount},
		{err: ErrInvalidPrice, expected: FailureInvalidAmount},
		{err: ErrInvalidSlotNumber, expected: FailureInvalidInput},
		{err: ErrInvalidLoginID, expected: FailureInvalidInput},
		{err: ErrDuplicateSlotNumber, expected: FailureDuplicate},
		{err: ErrDuplicateAccount, expected: FailureDuplicate},
		{err: ErrSlotNotFound, expected: FailureNotFound},
		{err: ErrAccountNotFound, expected: FailureNotFound},
		{err: ErrReservationNotFound, expected: FailureNotFound},
		{err: ErrReservationClosed, expected: FailureNotFound},
		{err: errors.New("disk on fire"), expected: FailureInternal},
	}
	for _, testCase := range cases {
		if got := KindOf(testCase.err); got != testCase.expected {
			test.Fatalf("KindOf(%v): expected %s, got %s", testCase.err, testCase.expected, got)
		}
	}
}

func TestKindOfSeesThroughWrapping(test *testing.T) {
	test.Parallel()
	wrapped := fmt.Errorf("outer: %w", ErrInsufficientBalance)
	if got := KindOf(wrapped); got != FailureInsufficientBalance {
		test.Fatalf("expected insufficient_balance through fmt wrap, got %s", got)
	}
	operationWrapped := WrapError("store", "wallet", "update", ErrAccountNotFound)
	if got := KindOf(operationWrapped); got != FailureNotFound {
		test.Fatalf("expected not_found through operation wrap, got %s", got)
	}
}

func TestWrapErrorCarriesSegments(test *testing.T) {
	test.Parallel()
	base := errors.New("boom")
	wrapped := WrapError("store", "slot", "create", base)

	var operationError OperationError
	if !errors.As(wrapped, &operationError) {
		test.Fatalf("expected OperationError, got %T", wrapped)
	}
	if operationError.Operation() != "store" || operationError.Subject() != "slot" || operationError.Code() != "create" {
		test.Fatalf("unexpected segments: %s %s %s", operationError.Operation(), operationError.Subject(), operationError.Code())
	}
	if !errors.Is(wrapped, base) {
		test.Fatalf("expected wrapped error to unwrap to base")
	}
	expectedMessage := "store.slot.create: boom"
	if wrapped.Error() != expectedMessage {
		test.Fatalf("expected %q, got %q", expectedMessage, wrapped.Error())
	}
}

func TestWrapErrorNilPassthrough(test *testing.T) {
	test.Parallel()
	if WrapError("store", "slot", "create", nil) != nil {
		test.Fatalf("expected nil for nil error")
	}
}
