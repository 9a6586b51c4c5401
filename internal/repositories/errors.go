package repositories

import (
	"errors"
	"fmt"

	apperrors "govpay/internal/errors"
	"govpay/internal/repositories/store"
)

var (
	ErrWalletNotFound        = apperrors.Newf(apperrors.ErrNotFound, "wallet not found")
	ErrTransactionNotFound   = apperrors.Newf(apperrors.ErrNotFound, "transaction not found")
	ErrScheduledBillNotFound = apperrors.Newf(apperrors.ErrNotFound, "scheduled bill not found")
	ErrBillNotFound          = apperrors.Newf(apperrors.ErrNotFound, "bill not found")
	ErrDuplicateTransaction  = apperrors.Newf(apperrors.ErrInvalidState, "transaction already exists")
	// ErrStateConflict is returned when a conditional write loses to another writer.
	ErrStateConflict = apperrors.Newf(apperrors.ErrInvalidState, "record changed concurrently")
)

// translate maps store sentinels onto repository errors.
func translate(err error, notFound error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", notFound, id)
	case errors.Is(err, store.ErrConditionFailed):
		return fmt.Errorf("%w: %s", ErrStateConflict, id)
	default:
		return err
	}
}
