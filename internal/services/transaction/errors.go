package transaction

import (
	apperrors "govpay/internal/errors"
	"govpay/internal/repositories"
)

// Service errors
var (
	ErrTransactionNotFound  = repositories.ErrTransactionNotFound
	ErrDuplicateTransaction = repositories.ErrDuplicateTransaction
	ErrInvalidType          = apperrors.Newf(apperrors.ErrValidation, "unknown transaction type")
	ErrInvalidEntry         = apperrors.Newf(apperrors.ErrValidation, "invalid transaction entry")
)
