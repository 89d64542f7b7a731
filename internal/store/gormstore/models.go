package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// Slot represents the parking_slots table.
type Slot struct {
	SlotID           int64     `gorm:"primaryKey;autoIncrement"`
	Number           string    `gorm:"size:10;uniqueIndex;not null"`
	Floor            int       `gorm:"not null"`
	Zone             string    `gorm:"size:50;index"`
	Type             string    `gorm:"size:20;not null"`
	HourlyPriceCents int64     `gorm:"not null"`
	Available        bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (Slot) TableName() string { return "parking_slots" }

// Account represents the users table.
type Account struct {
	UserID         int64     `gorm:"primaryKey;autoIncrement"`
	LoginID        string    `gorm:"size:100;uniqueIndex;not null"`
	DisplayName    string    `gorm:"size:100"`
	Email          string    `gorm:"size:100;uniqueIndex;not null"`
	Phone          string    `gorm:"size:20"`
	VehicleNumber  string    `gorm:"size:20"`
	BalanceCents   int64     `gorm:"not null;default:0"`
	CredentialHash string    `gorm:"size:100"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (Account) TableName() string { return "users" }

// Reservation represents the reservations table.
type Reservation struct {
	ReservationID int64     `gorm:"primaryKey;autoIncrement"`
	UserID        int64     `gorm:"not null;index:idx_reservations_user_status,priority:1"`
	SlotID        int64     `gorm:"not null;index:idx_reservations_slot_status,priority:1"`
	StartTime     time.Time `gorm:"not null;index"`
	EndTime       time.Time `gorm:"not null"`
	DurationHours int       `gorm:"not null"`
	TotalCents    int64     `gorm:"not null"`
	Status        string    `gorm:"size:20;not null;index:idx_reservations_user_status,priority:2;index:idx_reservations_slot_status,priority:2"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }

// WalletTransaction represents the wallet_transactions table. Append-only.
type WalletTransaction struct {
	EntryID     int64     `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"not null;index:idx_wallet_tx_user_created,priority:1"`
	AmountCents int64     `gorm:"not null"`
	Kind        string    `gorm:"size:10;not null"`
	Description string    `gorm:"size:200"`
	CreatedAt   time.Time `gorm:"not null;index:idx_wallet_tx_user_created,priority:2"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

// Payment represents the payments table.
type Payment struct {
	PaymentID      int64          `gorm:"primaryKey;autoIncrement"`
	ReservationID  int64          `gorm:"not null;index"`
	UserID         int64          `gorm:"not null;index"`
	AmountCents    int64          `gorm:"not null"`
	Method         string         `gorm:"size:20;not null"`
	TransactionRef string         `gorm:"size:64;uniqueIndex;not null"`
	Status         string         `gorm:"size:20;not null"`
	Metadata       datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// UtilizationStat represents the utilization_stats table, keyed by
// (slot_id, day, hour).
type UtilizationStat struct {
	SlotID         int64  `gorm:"primaryKey;autoIncrement:false"`
	Day            string `gorm:"size:10;primaryKey"`
	Hour           int    `gorm:"primaryKey;autoIncrement:false"`
	OccupancyCount int    `gorm:"not null;default:0"`
	RevenueCents   int64  `gorm:"not null;default:0"`
}

func (UtilizationStat) TableName() string { return "utilization_stats" }
