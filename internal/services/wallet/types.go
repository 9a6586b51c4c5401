package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds configuration for wallet operations
type Config struct {
	DefaultCurrency string
}

// DefaultCurrency is used when Config leaves it empty.
const DefaultCurrency = "SAR"

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordBalanceChange(walletID string, oldBalance, newBalance decimal.Decimal)
	RecordError(operation, errType string)
}
