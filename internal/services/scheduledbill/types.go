package scheduledbill

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInput is what a user supplies when scheduling a bill.
type CreateInput struct {
	WalletID            string
	BillID              string
	BillReferenceNumber string
	ServiceName         string
	MinistryName        string
	ScheduledAmount     decimal.Decimal
	ScheduledDate       time.Time
	Metadata            map[string]interface{}
}

// Result is the outcome of a settlement attempt. An insufficient balance is
// reported here rather than as an error; Required is the shortfall.
type Result struct {
	Success       bool             `json:"success"`
	TransactionID string           `json:"transactionId,omitempty"`
	Error         string           `json:"error,omitempty"`
	Required      *decimal.Decimal `json:"requiredTopup,omitempty"`
}
