package parking

const (
	// MinReservationHours and MaxReservationHours bound a reservation window.
	MinReservationHours = 1
	MaxReservationHours = 4

	// PaymentMethodWallet marks a payment settled from the internal wallet.
	PaymentMethodWallet = "wallet"
	// PaymentStatusCompleted marks a settled payment.
	PaymentStatusCompleted = "completed"

	dayFormat             = "2006-01-02"
	topUpDescription      = "wallet top-up"
	peakHourCount         = 3
	revenueWindowDays     = 7
	defaultLedgerLimit    = 50
	operationReserve      = "create_reservation"
	operationEnd          = "end_reservation"
	operationSweep        = "release_expired_reservations"
	operationCredit       = "credit_wallet"
	operationDelete       = "delete_account"
	operationStatusOK     = "ok"
	operationStatusFailed = "error"
)
