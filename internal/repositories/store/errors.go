package store

import (
	"fmt"

	apperrors "govpay/internal/errors"
)

// unavailable wraps a backend failure as StoreUnavailable.
func unavailable(op, path string, err error) error {
	return apperrors.Wrap(apperrors.ErrStoreUnavailable, fmt.Sprintf("store %s %s", op, path), err)
}
