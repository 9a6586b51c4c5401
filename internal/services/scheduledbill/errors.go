package scheduledbill

import (
	apperrors "govpay/internal/errors"
	"govpay/internal/repositories"
)

// Service errors
var (
	ErrScheduledBillNotFound = repositories.ErrScheduledBillNotFound
	ErrAlreadyProcessed      = apperrors.Newf(apperrors.ErrInvalidState, "scheduled bill already processed")
	ErrBillAlreadyPaid       = apperrors.Newf(apperrors.ErrInvalidState, "bill already paid")
	ErrReconciliationPending = apperrors.Newf(apperrors.ErrInvalidState, "wallet has a settlement awaiting reconciliation")
	ErrInvalidAmount         = apperrors.Newf(apperrors.ErrInvalidAmount, "scheduled amount must be greater than zero")
	ErrDateRequired          = apperrors.Newf(apperrors.ErrValidation, "scheduled date is required")
	ErrWalletRequired        = apperrors.Newf(apperrors.ErrValidation, "wallet id is required")
	ErrBillRequired          = apperrors.Newf(apperrors.ErrValidation, "bill id is required")
	ErrServiceNameRequired   = apperrors.Newf(apperrors.ErrValidation, "service name is required")
)
