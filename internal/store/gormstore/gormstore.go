package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/parking/pkg/parking"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultMetadataJSON   = "{}"
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
	postgresDialectName   = "postgres"
	errorOperationStore   = "store"
	errorSubjectSlot      = "slot"
	errorSubjectAccount   = "account"
	errorSubjectWallet    = "wallet"
	errorSubjectBooking   = "reservation"
	errorSubjectLedger    = "ledger"
	errorSubjectPayment   = "payment"
	errorSubjectStat      = "utilization"
	errorCodeCreate       = "create"
	errorCodeDuplicate    = "duplicate"
	errorCodeGet          = "get"
	errorCodeInsert       = "insert"
	errorCodeInvalid      = "invalid"
	errorCodeList         = "list"
	errorCodeUpdate       = "update"
	errorCodeDelete       = "delete"
	errorCodeUpsert       = "upsert"
)

// Store implements parking.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates all parking tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Slot{},
		&Account{},
		&Reservation{},
		&WalletTransaction{},
		&Payment{},
		&UtilizationStat{},
	)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore parking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) CreateSlot(ctx context.Context, slot parking.Slot) (int64, error) {
	model := Slot{
		Number:           slot.Number,
		Floor:            slot.Floor,
		Zone:             slot.Zone,
		Type:             slot.Type.String(),
		HourlyPriceCents: slot.HourlyPriceCents.Int64(),
		Available:        slot.Available,
		CreatedAt:        slot.CreatedAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return 0, wrapStoreError(errorSubjectSlot, errorCodeDuplicate, parking.ErrDuplicateSlotNumber)
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectSlot, errorCodeCreate, err)
	}
	return model.SlotID, nil
}

func (store *Store) GetSlot(ctx context.Context, slotID int64) (parking.Slot, error) {
	var model Slot
	err := store.db.WithContext(ctx).Where("slot_id = ?", slotID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return parking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeGet, parking.ErrSlotNotFound)
	}
	if err != nil {
		return parking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeGet, err)
	}
	return mapSlot(model)
}

// GetSlotForUpdate locks the slot row for the duration of the enclosing
// transaction. SQLite rejects FOR UPDATE and serializes writers anyway, so
// the lock clause is applied only on postgres.
func (store *Store) GetSlotForUpdate(ctx context.Context, slotID int64) (parking.Slot, error) {
	query := store.db.WithContext(ctx)
	if store.db.Dialector.Name() == postgresDialectName {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model Slot
	err := query.Where("slot_id = ?", slotID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return parking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeGet, parking.ErrSlotNotFound)
	}
	if err != nil {
		return parking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeGet, err)
	}
	return mapSlot(model)
}

func (store *Store) ListSlots(ctx context.Context, filter parking.SlotFilter) ([]parking.Slot, error) {
	query := store.db.WithContext(ctx).Model(&Slot{})
	if filter.Floor != nil {
		query = query.Where("floor = ?", *filter.Floor)
	}
	if filter.Zone != "" {
		query = query.Where("zone = ?", filter.Zone)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", filter.Type.String())
	}
	if filter.MaxPriceCents != nil {
		query = query.Where("hourly_price_cents <= ?", filter.MaxPriceCents.Int64())
	}
	if filter.OnlyAvailable {
		query = query.Where("available")
	}
	var rows []Slot
	err := query.Order("hourly_price_cents asc, floor asc, number asc").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectSlot, errorCodeList, err)
	}
	slots := make([]parking.Slot, 0, len(rows))
	for _, row := range rows {
		slot, err := mapSlot(row)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ClaimSlot flips an available slot to occupied. Zero rows affected means a
// concurrent claim won.
func (store *Store) ClaimSlot(ctx context.Context, slotID int64) error {
	result := store.db.WithContext(ctx).
		Model(&Slot{}).
		Where("slot_id = ? AND available", slotID).
		Update("available", false)
	if result.Error != nil {
		return wrapStoreError(errorSubjectSlot, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectSlot, errorCodeUpdate, parking.ErrSlotUnavailable)
	}
	return nil
}

func (store *Store) FreeSlot(ctx context.Context, slotID int64) error {
	result := store.db.WithContext(ctx).
		Model(&Slot{}).
		Where("slot_id = ?", slotID).
		Update("available", true)
	if result.Error != nil {
		return wrapStoreError(errorSubjectSlot, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectSlot, errorCodeUpdate, parking.ErrSlotNotFound)
	}
	return nil
}

func (store *Store) CreateAccount(ctx context.Context, account parking.Account) (int64, error) {
	model := Account{
		LoginID:        account.LoginID,
		DisplayName:    account.DisplayName,
		Email:          account.Email,
		Phone:          account.Phone,
		VehicleNumber:  account.VehicleNumber,
		BalanceCents:   account.BalanceCents.Int64(),
		CredentialHash: account.CredentialHash,
		CreatedAt:      account.CreatedAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return 0, wrapStoreError(errorSubjectAccount, errorCodeDuplicate, parking.ErrDuplicateAccount)
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectAccount, errorCodeCreate, err)
	}
	return model.UserID, nil
}

func (store *Store) GetAccount(ctx context.Context, userID int64) (parking.Account, error) {
	var model Account
	err := store.db.WithContext(ctx).Where("user_id = ?", userID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return parking.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, parking.ErrAccountNotFound)
	}
	if err != nil {
		return parking.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
	}
	return mapAccount(model), nil
}

func (store *Store) GetAccountByLogin(ctx context.Context, loginID string) (parking.Account, error) {
	var model Account
	err := store.db.WithContext(ctx).Where("login_id = ?", loginID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return parking.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, parking.ErrAccountNotFound)
	}
	if err != nil {
		return parking.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
	}
	return mapAccount(model), nil
}

func (store *Store) ListAccounts(ctx context.Context) ([]parking.Account, error) {
	var rows []Account
	err := store.db.WithContext(ctx).Order("user_id asc").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectAccount, errorCodeList, err)
	}
	accounts := make([]parking.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, mapAccount(row))
	}
	return accounts, nil
}

func (store *Store) CreditBalance(ctx context.Context, userID int64, amount parking.AmountCents) error {
	result := store.db.WithContext(ctx).
		Model(&Account{}).
		Where("user_id = ?", userID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", amount.Int64()))
	if result.Error != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdate, parking.ErrAccountNotFound)
	}
	return nil
}

// DebitBalanceIfSufficient is the conditional decrement guarding against
// double-spend: the predicate re-validates the balance at write time.
func (store *Store) DebitBalanceIfSufficient(ctx context.Context, userID int64, amount parking.AmountCents) (bool, error) {
	result := store.db.WithContext(ctx).
		Model(&Account{}).
		Where("user_id = ? AND balance_cents >= ?", userID, amount.Int64()).
		Update("balance_cents", gorm.Expr("balance_cents - ?", amount.Int64()))
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectWallet, errorCodeUpdate, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (store *Store) DeleteAccount(ctx context.Context, userID int64) error {
	result := store.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Account{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, parking.ErrAccountNotFound)
	}
	return nil
}

func (store *Store) InsertReservation(ctx context.Context, reservation parking.Reservation) (int64, error) {
	model := Reservation{
		UserID:        reservation.UserID,
		SlotID:        reservation.SlotID,
		StartTime:     reservation.StartTime,
		EndTime:       reservation.EndTime,
		DurationHours: reservation.DurationHours,
		TotalCents:    reservation.TotalCents.Int64(),
		Status:        reservation.Status.String(),
		CreatedAt:     reservation.CreatedAt,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, wrapStoreError(errorSubjectBooking, errorCodeInsert, err)
	}
	return model.ReservationID, nil
}

func (store *Store) GetReservation(ctx context.Context, reservationID int64) (parking.Reservation, error) {
	var model Reservation
	err := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return parking.Reservation{}, wrapStoreError(errorSubjectBooking, errorCodeGet, parking.ErrReservationNotFound)
	}
	if err != nil {
		return parking.Reservation{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return mapReservation(model)
}

func (store *Store) ActiveReservationForUser(ctx context.Context, userID int64) (parking.Reservation, bool, error) {
	var model Reservation
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, parking.ReservationStatusActive.String()).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return parking.Reservation{}, false, nil
	}
	if err != nil {
		return parking.Reservation{}, false, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	reservation, mapErr := mapReservation(model)
	if mapErr != nil {
		return parking.Reservation{}, false, mapErr
	}
	return reservation, true, nil
}

func (store *Store) UserReservedBetween(ctx context.Context, userID int64, from, until time.Time) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, from, until).
		Where("status <> ?", parking.ReservationStatusCancelled.String()).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	return count > 0, nil
}

func (store *Store) ListReservations(ctx context.Context) ([]parking.Reservation, error) {
	var rows []Reservation
	err := store.db.WithContext(ctx).Order("reservation_id asc").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	return mapReservations(rows)
}

func (store *Store) ListReservationsForUser(ctx context.Context, userID int64) ([]parking.UserReservation, error) {
	type joinedRow struct {
		ReservationID int64
		UserID        int64
		SlotID        int64
		StartTime     time.Time
		EndTime       time.Time
		DurationHours int
		TotalCents    int64
		Status        string
		CreatedAt     time.Time
		SlotNumber    string
		SlotFloor     int
		SlotZone      string
	}
	var rows []joinedRow
	err := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Select("reservations.*, parking_slots.number as slot_number, parking_slots.floor as slot_floor, parking_slots.zone as slot_zone").
		Joins("join parking_slots on parking_slots.slot_id = reservations.slot_id").
		Where("reservations.user_id = ?", userID).
		Order("reservations.created_at desc, reservations.reservation_id desc").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	reservations := make([]parking.UserReservation, 0, len(rows))
	for _, row := range rows {
		status, statusErr := parking.ParseReservationStatus(row.Status)
		if statusErr != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, statusErr)
		}
		reservations = append(reservations, parking.UserReservation{
			Reservation: parking.Reservation{
				ReservationID: row.ReservationID,
				UserID:        row.UserID,
				SlotID:        row.SlotID,
				StartTime:     row.StartTime,
				EndTime:       row.EndTime,
				DurationHours: row.DurationHours,
				TotalCents:    parking.AmountCents(row.TotalCents),
				Status:        status,
				CreatedAt:     row.CreatedAt,
			},
			SlotNumber: row.SlotNumber,
			Floor:      row.SlotFloor,
			Zone:       row.SlotZone,
		})
	}
	return reservations, nil
}

func (store *Store) ListExpiredActiveReservations(ctx context.Context, cutoff time.Time) ([]parking.Reservation, error) {
	var rows []Reservation
	err := store.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", parking.ReservationStatusActive.String(), cutoff).
		Order("reservation_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	return mapReservations(rows)
}

// TransitionReservation is a compare-and-set status update. Zero rows
// affected means the reservation already left the from status.
func (store *Store) TransitionReservation(ctx context.Context, reservationID int64, from, to parking.ReservationStatus, endedAt *time.Time) error {
	updates := map[string]interface{}{"status": to.String()}
	if endedAt != nil {
		updates["end_time"] = *endedAt
	}
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ? AND status = ?", reservationID, from.String()).
		Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdate, parking.ErrReservationClosed)
	}
	return nil
}

func (store *Store) DeleteReservationsForUser(ctx context.Context, userID int64) error {
	err := store.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Reservation{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) InsertLedgerEntry(ctx context.Context, entry parking.LedgerEntry) error {
	model := WalletTransaction{
		UserID:      entry.UserID,
		AmountCents: entry.AmountCents.Int64(),
		Kind:        entry.Kind.String(),
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectLedger, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListLedgerEntries(ctx context.Context, limit int) ([]parking.LedgerEntry, error) {
	var rows []WalletTransaction
	err := store.db.WithContext(ctx).
		Order("created_at desc, entry_id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLedger, errorCodeList, err)
	}
	entries := make([]parking.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry, mapErr := mapWalletTransaction(row)
		if mapErr != nil {
			return nil, mapErr
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (store *Store) DeleteLedgerEntriesForUser(ctx context.Context, userID int64) error {
	err := store.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&WalletTransaction{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectLedger, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) InsertPayment(ctx context.Context, payment parking.Payment) error {
	model := Payment{
		ReservationID:  payment.ReservationID,
		UserID:         payment.UserID,
		AmountCents:    payment.AmountCents.Int64(),
		Method:         payment.Method,
		TransactionRef: payment.TransactionRef,
		Status:         payment.Status,
		Metadata:       datatypesJSON(payment.MetadataJSON),
		CreatedAt:      payment.CreatedAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectPayment, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListPayments(ctx context.Context) ([]parking.Payment, error) {
	var rows []Payment
	err := store.db.WithContext(ctx).Order("payment_id asc").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPayment, errorCodeList, err)
	}
	payments := make([]parking.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, parking.Payment{
			PaymentID:      row.PaymentID,
			ReservationID:  row.ReservationID,
			UserID:         row.UserID,
			AmountCents:    parking.AmountCents(row.AmountCents),
			Method:         row.Method,
			TransactionRef: row.TransactionRef,
			Status:         row.Status,
			MetadataJSON:   string(row.Metadata),
			CreatedAt:      row.CreatedAt,
		})
	}
	return payments, nil
}

func (store *Store) DeletePaymentsForUser(ctx context.Context, userID int64) error {
	err := store.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Payment{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeDelete, err)
	}
	return nil
}

// BumpUtilization increments the (slot, day, hour) bucket, inserting it on
// first use. The unqualified columns in the conflict assignments refer to
// the existing row on both postgres and sqlite.
func (store *Store) BumpUtilization(ctx context.Context, slotID int64, day string, hour int, revenue parking.AmountCents) error {
	stat := UtilizationStat{
		SlotID:         slotID,
		Day:            day,
		Hour:           hour,
		OccupancyCount: 1,
		RevenueCents:   revenue.Int64(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slot_id"}, {Name: "day"}, {Name: "hour"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"occupancy_count": gorm.Expr("occupancy_count + 1"),
				"revenue_cents":   gorm.Expr("revenue_cents + ?", revenue.Int64()),
			}),
		}).
		Create(&stat).Error
	if err != nil {
		return wrapStoreError(errorSubjectStat, errorCodeUpsert, err)
	}
	return nil
}

func (store *Store) ListUtilization(ctx context.Context) ([]parking.UtilizationStat, error) {
	var rows []UtilizationStat
	err := store.db.WithContext(ctx).Order("day asc, hour asc, slot_id asc").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectStat, errorCodeList, err)
	}
	stats := make([]parking.UtilizationStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, parking.UtilizationStat{
			SlotID:         row.SlotID,
			Day:            row.Day,
			Hour:           row.Hour,
			OccupancyCount: row.OccupancyCount,
			RevenueCents:   parking.AmountCents(row.RevenueCents),
		})
	}
	return stats, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return parking.WrapError(errorOperationStore, subject, code, err)
}

func mapSlot(row Slot) (parking.Slot, error) {
	slotType, err := parking.ParseSlotType(row.Type)
	if err != nil {
		return parking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeInvalid, err)
	}
	return parking.Slot{
		SlotID:           row.SlotID,
		Number:           row.Number,
		Floor:            row.Floor,
		Zone:             row.Zone,
		Type:             slotType,
		HourlyPriceCents: parking.AmountCents(row.HourlyPriceCents),
		Available:        row.Available,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func mapAccount(row Account) parking.Account {
	return parking.Account{
		UserID:         row.UserID,
		LoginID:        row.LoginID,
		DisplayName:    row.DisplayName,
		Email:          row.Email,
		Phone:          row.Phone,
		VehicleNumber:  row.VehicleNumber,
		BalanceCents:   parking.AmountCents(row.BalanceCents),
		CredentialHash: row.CredentialHash,
		CreatedAt:      row.CreatedAt,
	}
}

func mapReservation(row Reservation) (parking.Reservation, error) {
	status, err := parking.ParseReservationStatus(row.Status)
	if err != nil {
		return parking.Reservation{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return parking.Reservation{
		ReservationID: row.ReservationID,
		UserID:        row.UserID,
		SlotID:        row.SlotID,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
		DurationHours: row.DurationHours,
		TotalCents:    parking.AmountCents(row.TotalCents),
		Status:        status,
		CreatedAt:     row.CreatedAt,
	}, nil
}

func mapReservations(rows []Reservation) ([]parking.Reservation, error) {
	reservations := make([]parking.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation, err := mapReservation(row)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

func mapWalletTransaction(row WalletTransaction) (parking.LedgerEntry, error) {
	kind, err := parking.ParseLedgerKind(row.Kind)
	if err != nil {
		return parking.LedgerEntry{}, wrapStoreError(errorSubjectLedger, errorCodeInvalid, err)
	}
	return parking.LedgerEntry{
		EntryID:     row.EntryID,
		UserID:      row.UserID,
		AmountCents: parking.AmountCents(row.AmountCents),
		Kind:        kind,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
