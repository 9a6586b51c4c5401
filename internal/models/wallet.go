package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet types
const (
	WalletTypePersonal = "personal"
	WalletTypeBusiness = "business"
)

// Wallet statuses
const (
	WalletStatusActive   = "active"
	WalletStatusLocked   = "locked"
	WalletStatusInactive = "inactive"
)

type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
