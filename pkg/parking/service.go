package parking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service contains the reservation domain logic over a Store.
type Service struct {
	store  Store
	nowFn  func() time.Time
	refFn  func() string
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, refFn: uuid.NewString}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// CreateReservation validates and commits a paid reservation as one atomic
// unit: reservation row, conditional wallet debit, debit ledger entry,
// payment record, slot claim, and utilization bump all succeed or none do.
// The slot row is locked before the account is touched.
func (service *Service) CreateReservation(ctx context.Context, userID int64, slotID int64, durationHours int) (Reservation, error) {
	var created Reservation
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if durationHours < MinReservationHours || durationHours > MaxReservationHours {
			return ErrInvalidDuration
		}
		slot, slotErr := txStore.GetSlotForUpdate(ctx, slotID)

		if _, exists, err := txStore.ActiveReservationForUser(ctx, userID); err != nil {
			return err
		} else if exists {
			return ErrActiveReservationExists
		}

		now := service.nowFn()
		dayStart, dayEnd := dayBounds(now)
		reservedToday, err := txStore.UserReservedBetween(ctx, userID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if reservedToday {
			return ErrDailyLimitReached
		}

		if slotErr != nil {
			// A missing slot and an occupied slot reject identically.
			if errors.Is(slotErr, ErrSlotNotFound) {
				return fmt.Errorf("%w: no slot with id %d", ErrSlotUnavailable, slotID)
			}
			return slotErr
		}
		if !slot.Available {
			return ErrSlotUnavailable
		}

		account, err := txStore.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		total := slot.HourlyPriceCents * AmountCents(durationHours)
		if account.BalanceCents < total {
			return fmt.Errorf("%w: need %d cents, have %d cents", ErrInsufficientBalance, total, account.BalanceCents)
		}

		// Conditional decrement closes the read-then-write race: a
		// concurrent debit since the check above fails the whole unit.
		debited, err := txStore.DebitBalanceIfSufficient(ctx, userID, total)
		if err != nil {
			return err
		}
		if !debited {
			return ErrConcurrentConflict
		}

		reservation := Reservation{
			UserID:        userID,
			SlotID:        slotID,
			StartTime:     now,
			EndTime:       now.Add(time.Duration(durationHours) * time.Hour),
			DurationHours: durationHours,
			TotalCents:    total,
			Status:        ReservationStatusActive,
			CreatedAt:     now,
		}
		reservationID, err := txStore.InsertReservation(ctx, reservation)
		if err != nil {
			return err
		}
		reservation.ReservationID = reservationID

		if err := txStore.InsertLedgerEntry(ctx, LedgerEntry{
			UserID:      userID,
			AmountCents: -total,
			Kind:        LedgerKindDebit,
			Description: fmt.Sprintf("parking charge for slot %s", slot.Number),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		if err := txStore.InsertPayment(ctx, Payment{
			ReservationID:  reservationID,
			UserID:         userID,
			AmountCents:    total,
			Method:         PaymentMethodWallet,
			TransactionRef: service.refFn(),
			Status:         PaymentStatusCompleted,
			MetadataJSON:   fmt.Sprintf(`{"slot_number":%q,"duration_hours":%d}`, slot.Number, durationHours),
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		if err := txStore.ClaimSlot(ctx, slotID); err != nil {
			return err
		}

		if err := txStore.BumpUtilization(ctx, slotID, now.Format(dayFormat), now.Hour(), total); err != nil {
			return err
		}

		created = reservation
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationReserve,
		UserID:        userID,
		SlotID:        slotID,
		ReservationID: created.ReservationID,
		AmountCents:   created.TotalCents,
		Error:         operationError,
	})
	return created, operationError
}

// EndReservation completes an active reservation and frees its slot.
// Ending a reservation that is already completed or cancelled is rejected,
// so a racing sweep and an explicit end can never double-free a slot.
func (service *Service) EndReservation(ctx context.Context, reservationID int64) error {
	var slotID int64
	var userID int64
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		reservation, err := txStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		slotID = reservation.SlotID
		userID = reservation.UserID
		endedAt := service.nowFn()
		if err := txStore.TransitionReservation(ctx, reservationID, ReservationStatusActive, ReservationStatusCompleted, &endedAt); err != nil {
			return err
		}
		return txStore.FreeSlot(ctx, reservation.SlotID)
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationEnd,
		UserID:        userID,
		SlotID:        slotID,
		ReservationID: reservationID,
		Error:         operationError,
	})
	return operationError
}

// ReleaseExpiredReservations completes every active reservation whose paid
// window has elapsed and frees its slot. The stored end_time is left as the
// paid-through instant. Idempotent; runs ahead of externally visible reads.
func (service *Service) ReleaseExpiredReservations(ctx context.Context) (int, error) {
	released := 0
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		expired, err := txStore.ListExpiredActiveReservations(ctx, service.nowFn())
		if err != nil {
			return err
		}
		for _, reservation := range expired {
			err := txStore.TransitionReservation(ctx, reservation.ReservationID, ReservationStatusActive, ReservationStatusCompleted, nil)
			if errors.Is(err, ErrReservationClosed) {
				// Raced with an explicit end; the slot is already free.
				continue
			}
			if err != nil {
				return err
			}
			if err := txStore.FreeSlot(ctx, reservation.SlotID); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	// Quiet sweeps are not logged.
	if operationError != nil || released > 0 {
		service.logOperation(ctx, OperationLog{
			Operation:     operationSweep,
			ReleasedCount: released,
			Error:         operationError,
		})
	}
	if operationError != nil {
		return 0, operationError
	}
	return released, nil
}

// DeleteAccount force-cancels the account's active reservation, frees its
// slot, and purges the account with its payments, ledger entries, and
// reservation history.
func (service *Service) DeleteAccount(ctx context.Context, userID int64) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if _, err := txStore.GetAccount(ctx, userID); err != nil {
			return err
		}
		reservation, exists, err := txStore.ActiveReservationForUser(ctx, userID)
		if err != nil {
			return err
		}
		if exists {
			endedAt := service.nowFn()
			if err := txStore.TransitionReservation(ctx, reservation.ReservationID, ReservationStatusActive, ReservationStatusCancelled, &endedAt); err != nil {
				return err
			}
			if err := txStore.FreeSlot(ctx, reservation.SlotID); err != nil {
				return err
			}
		}
		if err := txStore.DeletePaymentsForUser(ctx, userID); err != nil {
			return err
		}
		if err := txStore.DeleteLedgerEntriesForUser(ctx, userID); err != nil {
			return err
		}
		if err := txStore.DeleteReservationsForUser(ctx, userID); err != nil {
			return err
		}
		return txStore.DeleteAccount(ctx, userID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDelete,
		UserID:    userID,
		Error:     operationError,
	})
	return operationError
}

// Reservation returns one reservation by id.
func (service *Service) Reservation(ctx context.Context, reservationID int64) (Reservation, error) {
	return service.store.GetReservation(ctx, reservationID)
}

// UserReservations returns the user's reservation history, newest first,
// joined with slot location.
func (service *Service) UserReservations(ctx context.Context, userID int64) ([]UserReservation, error) {
	return service.store.ListReservationsForUser(ctx, userID)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusFailed
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

// dayBounds returns the local calendar day containing at as [start, end).
func dayBounds(at time.Time) (time.Time, time.Time) {
	start := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return start, start.AddDate(0, 0, 1)
}
