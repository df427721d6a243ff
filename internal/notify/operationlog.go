package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

// ZapOperationLogger adapts a zap logger to the ledger's operation callback
// so every state-changing ledger operation lands in structured output.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger wires the adapter. A nil logger becomes a no-op.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapOperationLogger{logger: logger}
}

// LogOperation implements ledger.OperationLogger.
func (operationLogger *ZapOperationLogger) LogOperation(_ context.Context, entry ledger.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("user_id", entry.UserID.String()),
		zap.String("type", string(entry.Type)),
		zap.String("transaction_id", entry.TransactionID),
		zap.Int64("amount_cents", int64(entry.Amount)),
		zap.String("status", entry.Status),
	}
	if entry.ReferenceID != "" {
		fields = append(fields, zap.String("reference_id", entry.ReferenceID))
	}
	if entry.Error != nil {
		operationLogger.logger.Warn("ledger operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	operationLogger.logger.Info("ledger operation", fields...)
}
