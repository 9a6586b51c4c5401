package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"govpay/internal/models"
	"govpay/internal/repositories/store"
)

// TransactionRepository stores ledger entries under their wallet.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, walletID, id string) (*models.Transaction, error)
	// ListByWallet returns entries newest first.
	ListByWallet(ctx context.Context, walletID string) ([]*models.Transaction, error)
}

type transactionRepository struct {
	store store.RecordStore
}

func NewTransactionRepository(s store.RecordStore) TransactionRepository {
	return &transactionRepository{store: s}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	path := transactionPath(txn.WalletID, txn.ID)
	_, err := r.store.Get(ctx, path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, txn.ID)
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	doc, err := store.Encode(txn)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, path, doc); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, walletID, id string) (*models.Transaction, error) {
	doc, err := r.store.Get(ctx, transactionPath(walletID, id))
	if err != nil {
		return nil, translate(err, ErrTransactionNotFound, id)
	}
	var txn models.Transaction
	if err := store.Decode(doc, &txn); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", id, err)
	}
	return &txn, nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, walletID string) ([]*models.Transaction, error) {
	docs, err := r.store.List(ctx, transactionsPath(walletID))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	txns := make([]*models.Transaction, 0, len(docs))
	for id, doc := range docs {
		var txn models.Transaction
		if err := store.Decode(doc, &txn); err != nil {
			return nil, fmt.Errorf("failed to decode transaction %s: %w", id, err)
		}
		txns = append(txns, &txn)
	}
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].ID > txns[j].ID
		}
		return txns[i].Timestamp.After(txns[j].Timestamp)
	})
	return txns, nil
}
