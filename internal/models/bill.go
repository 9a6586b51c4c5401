package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill statuses
const (
	BillStatusUnpaid = "unpaid"
	BillStatusPaid   = "paid"
)

// Service types a bill can be issued for
const (
	ServicePassports    = "passports"
	ServiceTraffic      = "traffic"
	ServiceCivilAffairs = "civil_affairs"
	ServiceCommerce     = "commerce"
)

type PenaltyInfo struct {
	LateFee     decimal.Decimal `json:"lateFee"`
	DaysOverdue int             `json:"daysOverdue"`
}

// Bill is a payable government fee as issued by the ministry.
type Bill struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	WalletID        string          `json:"walletId,omitempty"`
	ReferenceNumber string          `json:"referenceNumber"`
	Amount          decimal.Decimal `json:"amount"`
	PenaltyInfo     *PenaltyInfo    `json:"penaltyInfo,omitempty"`
	DueDate         time.Time       `json:"dueDate"`
	Status          string          `json:"status"`
	ServiceType     string          `json:"serviceType"`
	ServiceName     string          `json:"serviceName,omitempty"`
	MinistryName    string          `json:"ministryName,omitempty"`
	AdditionalInfo  JSON            `json:"additionalInfo,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	PaymentID       string          `json:"paymentId,omitempty"`
}

// TotalDue is the bill amount plus any late fee.
func (b *Bill) TotalDue() decimal.Decimal {
	if b.PenaltyInfo == nil {
		return b.Amount
	}
	return b.Amount.Add(b.PenaltyInfo.LateFee)
}
