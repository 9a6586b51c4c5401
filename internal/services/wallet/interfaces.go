package wallet

import (
	"context"

	"govpay/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the wallet ledger operations
type Service interface {
	CreateWallet(ctx context.Context, userID, walletType string, opening decimal.Decimal) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*models.Wallet, error)
	GetBalance(ctx context.Context, walletID string) (decimal.Decimal, error)

	Debit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, error)
	DebitFrom(ctx context.Context, walletID string, expected, amount decimal.Decimal) (*models.Wallet, error)

	// RestoreBalance sets balance when the stored value still equals expected.
	RestoreBalance(ctx context.Context, walletID string, expected, balance decimal.Decimal) error
}
