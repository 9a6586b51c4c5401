package wallet

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)                {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)                         {}
func (n *NoopMetricsCollector) RecordBalanceChange(string, decimal.Decimal, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordError(string, string)                                   {}

// LogMetricsCollector writes metrics as debug log lines.
type LogMetricsCollector struct {
	log *zap.Logger
}

func NewLogMetricsCollector(log *zap.Logger) *LogMetricsCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMetricsCollector{log: log.Named("wallet.metrics")}
}

func (m *LogMetricsCollector) RecordOperationDuration(op string, d time.Duration) {
	m.log.Debug("operation duration", zap.String("operation", op), zap.Duration("duration", d))
}

func (m *LogMetricsCollector) RecordOperationResult(op, result string) {
	m.log.Debug("operation result", zap.String("operation", op), zap.String("result", result))
}

func (m *LogMetricsCollector) RecordBalanceChange(walletID string, oldBalance, newBalance decimal.Decimal) {
	m.log.Debug("balance change",
		zap.String("wallet_id", walletID),
		zap.String("old_balance", oldBalance.String()),
		zap.String("new_balance", newBalance.String()),
	)
}

func (m *LogMetricsCollector) RecordError(op, errType string) {
	m.log.Debug("operation error", zap.String("operation", op), zap.String("error_type", errType))
}
