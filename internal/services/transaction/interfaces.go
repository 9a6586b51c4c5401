package transaction

import (
	"context"

	"govpay/internal/models"
)

// Service records immutable ledger entries
type Service interface {
	// Record persists entry under walletID and returns the stored transaction.
	Record(ctx context.Context, walletID string, entry Entry) (*models.Transaction, error)
	Get(ctx context.Context, walletID, id string) (*models.Transaction, error)
	// List returns the wallet's entries newest first.
	List(ctx context.Context, walletID string) ([]*models.Transaction, error)
}
