package parking

import (
	"context"

	"go.uber.org/zap"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing parking operation.
type OperationLog struct {
	Operation     string
	UserID        int64
	SlotID        int64
	ReservationID int64
	AmountCents   AmountCents
	ReleasedCount int
	Status        string
	Error         error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithTransactionRefFn overrides payment transaction reference generation.
func WithTransactionRefFn(refFn func() string) ServiceOption {
	return func(service *Service) {
		if refFn != nil {
			service.refFn = refFn
		}
	}
}

type zapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger adapts a zap logger into an OperationLogger.
func NewZapOperationLogger(logger *zap.Logger) OperationLogger {
	return &zapOperationLogger{logger: logger}
}

func (adapter *zapOperationLogger) LogOperation(_ context.Context, entry OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.Int64("user_id", entry.UserID),
	}
	if entry.SlotID != 0 {
		fields = append(fields, zap.Int64("slot_id", entry.SlotID))
	}
	if entry.ReservationID != 0 {
		fields = append(fields, zap.Int64("reservation_id", entry.ReservationID))
	}
	if entry.AmountCents != 0 {
		fields = append(fields, zap.Int64("amount_cents", entry.AmountCents.Int64()))
	}
	if entry.ReleasedCount != 0 {
		fields = append(fields, zap.Int("released_count", entry.ReleasedCount))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		adapter.logger.Warn("parking operation failed", fields...)
		return
	}
	adapter.logger.Info("parking operation", fields...)
}
