package parking

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AmountCents is an integer currency amount in cents.
type AmountCents int64

// Int64 returns the raw cent value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// SlotType classifies a parking slot.
type SlotType string

const (
	SlotTypeRegular  SlotType = "regular"
	SlotTypeElectric SlotType = "electric"
	SlotTypeHandicap SlotType = "handicap"
	SlotTypePremium  SlotType = "premium"
	SlotTypeVIP      SlotType = "vip"
)

// String returns the stored representation.
func (slotType SlotType) String() string {
	return string(slotType)
}

// ParseSlotType validates a raw slot type value.
func ParseSlotType(raw string) (SlotType, error) {
	switch SlotType(strings.TrimSpace(strings.ToLower(raw))) {
	case SlotTypeRegular:
		return SlotTypeRegular, nil
	case SlotTypeElectric:
		return SlotTypeElectric, nil
	case SlotTypeHandicap:
		return SlotTypeHandicap, nil
	case SlotTypePremium:
		return SlotTypePremium, nil
	case SlotTypeVIP:
		return SlotTypeVIP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlotType, raw)
}

// ReservationStatus defines the reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// String returns the stored representation.
func (status ReservationStatus) String() string {
	return string(status)
}

// ParseReservationStatus validates a raw status value.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch ReservationStatus(raw) {
	case ReservationStatusActive:
		return ReservationStatusActive, nil
	case ReservationStatusCompleted:
		return ReservationStatusCompleted, nil
	case ReservationStatusCancelled:
		return ReservationStatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReservationStatus, raw)
}

// LedgerKind enumerates wallet ledger entry kinds.
type LedgerKind string

const (
	LedgerKindCredit LedgerKind = "credit"
	LedgerKindDebit  LedgerKind = "debit"
)

// String returns the stored representation.
func (kind LedgerKind) String() string {
	return string(kind)
}

// ParseLedgerKind validates a raw ledger kind value.
func ParseLedgerKind(raw string) (LedgerKind, error) {
	switch LedgerKind(raw) {
	case LedgerKindCredit:
		return LedgerKindCredit, nil
	case LedgerKindDebit:
		return LedgerKindDebit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLedgerKind, raw)
}

// Slot is a parking space with location, type, and hourly price.
type Slot struct {
	SlotID           int64
	Number           string
	Floor            int
	Zone             string
	Type             SlotType
	HourlyPriceCents AmountCents
	Available        bool
	CreatedAt        time.Time
}

// Account is a registered user with a wallet balance.
type Account struct {
	UserID         int64
	LoginID        string
	DisplayName    string
	Email          string
	Phone          string
	VehicleNumber  string
	BalanceCents   AmountCents
	CredentialHash string
	CreatedAt      time.Time
}

// Reservation is a time-boxed, prepaid claim on a slot.
type Reservation struct {
	ReservationID int64
	UserID        int64
	SlotID        int64
	StartTime     time.Time
	EndTime       time.Time
	DurationHours int
	TotalCents    AmountCents
	Status        ReservationStatus
	CreatedAt     time.Time
}

// UserReservation is a reservation joined with its slot location.
type UserReservation struct {
	Reservation
	SlotNumber string
	Floor      int
	Zone       string
}

// LedgerEntry is a single immutable wallet balance change.
// Credits are positive, debits negative.
type LedgerEntry struct {
	EntryID     int64
	UserID      int64
	AmountCents AmountCents
	Kind        LedgerKind
	Description string
	CreatedAt   time.Time
}

// Payment records the wallet debit backing one reservation.
type Payment struct {
	PaymentID      int64
	ReservationID  int64
	UserID         int64
	AmountCents    AmountCents
	Method         string
	TransactionRef string
	Status         string
	MetadataJSON   string
	CreatedAt      time.Time
}

// UtilizationStat is a per-slot, per-hour occupancy/revenue bucket.
type UtilizationStat struct {
	SlotID         int64
	Day            string
	Hour           int
	OccupancyCount int
	RevenueCents   AmountCents
}

// SlotFilter narrows a slot search. Nil/zero fields are ignored.
type SlotFilter struct {
	Floor         *int
	Zone          string
	Type          *SlotType
	MaxPriceCents *AmountCents
	OnlyAvailable bool
}

// FloorAvailability is a per-floor slice of the availability summary.
type FloorAvailability struct {
	Floor     int
	Total     int
	Available int
}

// ZoneAvailability is a per-zone slice of the availability summary.
type ZoneAvailability struct {
	Zone      string
	Total     int
	Available int
}

// AvailabilitySummary aggregates slot occupancy at a point in time.
type AvailabilitySummary struct {
	TotalSlots     int
	AvailableSlots int
	OccupiedSlots  int
	OccupancyRate  float64
	ByFloor        []FloorAvailability
	ByZone         []ZoneAvailability
}

// HourDemand is the mean historical occupancy for one hour of the day.
type HourDemand struct {
	Hour             int
	AverageOccupancy float64
}

// GroupCount aggregates reservations and revenue under one key.
type GroupCount struct {
	Key          string
	Reservations int
	RevenueCents AmountCents
}

// DemandForecast is the peak-demand prediction output.
type DemandForecast struct {
	Sufficient bool
	SampleSize int
	PeakHours  []HourDemand
	Hourly     []HourDemand
	ByZone     []GroupCount
	ByType     []GroupCount
}

// DailyRevenue is one calendar day of completed-payment revenue.
type DailyRevenue struct {
	Day          string
	RevenueCents AmountCents
}

// RevenueReport aggregates completed payments.
type RevenueReport struct {
	TotalCents    AmountCents
	LastSevenDays []DailyRevenue
	ByType        []GroupCount
}

// Store is the persistence contract used by Service.
// (gormstore implements this already.)
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	CreateSlot(ctx context.Context, slot Slot) (int64, error)
	GetSlot(ctx context.Context, slotID int64) (Slot, error)
	GetSlotForUpdate(ctx context.Context, slotID int64) (Slot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error)
	ClaimSlot(ctx context.Context, slotID int64) error
	FreeSlot(ctx context.Context, slotID int64) error

	CreateAccount(ctx context.Context, account Account) (int64, error)
	GetAccount(ctx context.Context, userID int64) (Account, error)
	GetAccountByLogin(ctx context.Context, loginID string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	CreditBalance(ctx context.Context, userID int64, amount AmountCents) error
	DebitBalanceIfSufficient(ctx context.Context, userID int64, amount AmountCents) (bool, error)
	DeleteAccount(ctx context.Context, userID int64) error

	InsertReservation(ctx context.Context, reservation Reservation) (int64, error)
	GetReservation(ctx context.Context, reservationID int64) (Reservation, error)
	ActiveReservationForUser(ctx context.Context, userID int64) (Reservation, bool, error)
	UserReservedBetween(ctx context.Context, userID int64, from, until time.Time) (bool, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListReservationsForUser(ctx context.Context, userID int64) ([]UserReservation, error)
	ListExpiredActiveReservations(ctx context.Context, cutoff time.Time) ([]Reservation, error)
	TransitionReservation(ctx context.Context, reservationID int64, from, to ReservationStatus, endedAt *time.Time) error
	DeleteReservationsForUser(ctx context.Context, userID int64) error

	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) error
	ListLedgerEntries(ctx context.Context, limit int) ([]LedgerEntry, error)
	DeleteLedgerEntriesForUser(ctx context.Context, userID int64) error

	InsertPayment(ctx context.Context, payment Payment) error
	ListPayments(ctx context.Context) ([]Payment, error)
	DeletePaymentsForUser(ctx context.Context, userID int64) error

	BumpUtilization(ctx context.Context, slotID int64, day string, hour int, revenue AmountCents) error
	ListUtilization(ctx context.Context) ([]UtilizationStat, error)
}
