package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduledBillStatus is the closed set of lifecycle states.
type ScheduledBillStatus string

const (
	ScheduledBillStatusScheduled ScheduledBillStatus = "scheduled"
	ScheduledBillStatusPaid      ScheduledBillStatus = "paid"
	ScheduledBillStatusCancelled ScheduledBillStatus = "cancelled"
	ScheduledBillStatusFailed    ScheduledBillStatus = "failed"
)

// Valid reports whether s is one of the known states.
func (s ScheduledBillStatus) Valid() bool {
	switch s {
	case ScheduledBillStatusScheduled, ScheduledBillStatusPaid,
		ScheduledBillStatusCancelled, ScheduledBillStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s ScheduledBillStatus) Terminal() bool {
	return s == ScheduledBillStatusPaid || s == ScheduledBillStatusCancelled || s == ScheduledBillStatusFailed
}

// Failure reasons recorded on failed schedules
const (
	FailureInsufficientFunds = "insufficient_funds"
	FailureStoreUnavailable  = "store_unavailable"
	FailureWalletNotFound    = "wallet_not_found"
	FailureWalletInactive    = "wallet_inactive"
	FailureBillNotFound      = "bill_not_found"
	FailureBillAlreadyPaid   = "bill_already_paid"
)

// Metadata keys snapshotted from the bill at scheduling time
const (
	MetaBaseAmount    = "baseAmount"
	MetaPenaltyAmount = "penaltyAmount"
	MetaDaysOverdue   = "daysOverdue"
	MetaServiceType   = "serviceType"
)

// ScheduledBill is a deferred intent to pay a bill from a wallet.
// SettlementID is the claim token set by the settlement path before any
// money moves; it equals the id of the payment transaction.
type ScheduledBill struct {
	ID                  string              `json:"id"`
	UserID              string              `json:"userId"`
	WalletID            string              `json:"walletId"`
	BillID              string              `json:"billId"`
	BillReferenceNumber string              `json:"billReferenceNumber"`
	ServiceName         string              `json:"serviceName"`
	MinistryName        string              `json:"ministryName,omitempty"`
	ScheduledAmount     decimal.Decimal     `json:"scheduledAmount"`
	ScheduledDate       time.Time           `json:"scheduledDate"`
	Status              ScheduledBillStatus `json:"status"`
	Metadata            JSON                `json:"metadata,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	CompletedAt         *time.Time          `json:"completedAt,omitempty"`
	CancelledAt         *time.Time          `json:"cancelledAt,omitempty"`
	FailedAt            *time.Time          `json:"failedAt,omitempty"`
	FailureReason       string              `json:"failureReason,omitempty"`
	TransactionID       string              `json:"transactionId,omitempty"`
	SettlementID        string              `json:"settlementId,omitempty"`
}

// ScheduledBillIndexEntry points at an open schedule so sweeps do not need
// to walk every user.
type ScheduledBillIndexEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	WalletID      string    `json:"walletId"`
	ScheduledDate time.Time `json:"scheduledDate"`
}

// ScheduledBillStats is the dashboard summary of a user's schedules.
type ScheduledBillStats struct {
	TotalScheduled       int             `json:"totalScheduled"`
	TotalScheduledAmount decimal.Decimal `json:"totalScheduledAmount"`
	TotalPaid            int             `json:"totalPaid"`
	TotalPaidAmount      decimal.Decimal `json:"totalPaidAmount"`
	TotalCancelled       int             `json:"totalCancelled"`
	TotalFailed          int             `json:"totalFailed"`
	OverdueCount         int             `json:"overdueCount"`
}
