package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypePayment    = "payment"
	TransactionTypeTopup      = "topup"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeRefund     = "refund"
	TransactionTypeTransfer   = "transfer"
	TransactionTypeReversal   = "reversal"
	TransactionTypeAdjustment = "adjustment"
)

// Transaction categories used by government fee payments
const (
	CategoryGovernmentFee = "government_fee"
	CategoryScheduledBill = "scheduled_bill"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// Transaction is an immutable ledger entry. Amount is signed: debits are
// negative, so BalanceAfter = BalanceBefore + Amount.
type Transaction struct {
	ID              string          `json:"id"`
	WalletID        string          `json:"walletId"`
	ReferenceNumber string          `json:"referenceNumber"`
	Type            string          `json:"type"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	Currency        string          `json:"currency,omitempty"`
	Status          string          `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	DescriptionAr   string          `json:"descriptionAr,omitempty"`
	DescriptionEn   string          `json:"descriptionEn,omitempty"`
	Metadata        JSON            `json:"metadata,omitempty"`
}
