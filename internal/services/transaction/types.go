package transaction

import (
	"github.com/shopspring/decimal"
)

// Entry is the caller's half of a ledger record. ID is optional; the
// recorder fills reference number, timestamp, status and balance after.
type Entry struct {
	ID            string
	Type          string
	Category      string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	Currency      string
	DescriptionAr string
	DescriptionEn string
	Metadata      map[string]interface{}
}
