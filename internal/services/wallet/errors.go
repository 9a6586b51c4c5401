package wallet

import (
	apperrors "govpay/internal/errors"
	"govpay/internal/repositories"
)

// Service errors
var (
	ErrWalletNotFound    = repositories.ErrWalletNotFound
	ErrInvalidAmount     = apperrors.Newf(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	ErrInsufficientFunds = apperrors.Newf(apperrors.ErrInsufficientFunds, "insufficient wallet balance")
	ErrWalletLocked      = apperrors.Newf(apperrors.ErrInvalidState, "wallet is not active")
	// ErrBalanceChanged is returned when a compare-and-set on the balance loses.
	ErrBalanceChanged = apperrors.Newf(apperrors.ErrStoreUnavailable, "wallet balance changed concurrently")
)
