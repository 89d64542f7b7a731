package parking

import (
	"errors"
	"testing"
)

func TestParseSlotType(test *testing.T) {
	test.Parallel()
	accepted := map[string]SlotType{
		"regular":   SlotTypeRegular,
		"ELECTRIC":  SlotTypeElectric,
		" handicap": SlotTypeHandicap,
		"Premium":   SlotTypePremium,
		"vip":       SlotTypeVIP,
	}
	for raw, expected := range accepted {
		slotType, err := ParseSlotType(raw)
		if err != nil {
			test.Fatalf("parse %q: %v", raw, err)
		}
		if slotType != expected {
			test.Fatalf("parse %q: expected %s, got %s", raw, expected, slotType)
		}
	}
	for _, raw := range []string{"", "compact", "hoverpad"} {
		_, err := ParseSlotType(raw)
		if !errors.Is(err, ErrInvalidSlotType) {
			test.Fatalf("parse %q: expected ErrInvalidSlotType, got %v", raw, err)
		}
	}
}

func TestParseReservationStatus(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"active", "completed", "cancelled"} {
		status, err := ParseReservationStatus(raw)
		if err != nil {
			test.Fatalf("parse %q: %v", raw, err)
		}
		if status.String() != raw {
			test.Fatalf("parse %q: got %s", raw, status)
		}
	}
	_, err := ParseReservationStatus("expired")
	if !errors.Is(err, ErrInvalidReservationStatus) {
		test.Fatalf("expected ErrInvalidReservationStatus, got %v", err)
	}
}

func TestParseLedgerKind(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"credit", "debit"} {
		kind, err := ParseLedgerKind(raw)
		if err != nil {
			test.Fatalf("parse %q: %v", raw, err)
		}
		if kind.String() != raw {
			test.Fatalf("parse %q: got %s", raw, kind)
		}
	}
	_, err := ParseLedgerKind("refund")
	if !errors.Is(err, ErrInvalidLedgerKind) {
		test.Fatalf("expected ErrInvalidLedgerKind, got %v", err)
	}
}

func TestAmountCentsInt64(test *testing.T) {
	test.Parallel()
	if AmountCents(12345).Int64() != 12345 {
		test.Fatalf("unexpected raw value")
	}
	if AmountCents(-500).Int64() != -500 {
		test.Fatalf("expected negative amounts preserved")
	}
}
