package repositories

import (
	"context"
	"fmt"
	"time"

	"govpay/internal/models"
	"govpay/internal/repositories/store"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the wallet record operations
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	// UpdateBalance writes balance only if the stored balance still equals expected.
	UpdateBalance(ctx context.Context, id string, expected, balance decimal.Decimal, at time.Time) error
}

type walletRepository struct {
	store store.RecordStore
}

func NewWalletRepository(s store.RecordStore) WalletRepository {
	return &walletRepository{store: s}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	doc, err := store.Encode(wallet)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, walletPath(wallet.ID), doc); err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	doc, err := r.store.Get(ctx, walletPath(id))
	if err != nil {
		return nil, translate(err, ErrWalletNotFound, id)
	}
	var wallet models.Wallet
	if err := store.Decode(doc, &wallet); err != nil {
		return nil, fmt.Errorf("failed to decode wallet %s: %w", id, err)
	}
	if wallet.ID == "" {
		wallet.ID = id
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, id string, expected, balance decimal.Decimal, at time.Time) error {
	err := r.store.CompareAndUpdate(ctx, walletPath(id),
		store.Document{"balance": expected},
		store.Document{"balance": balance, "updatedAt": at},
	)
	return translate(err, ErrWalletNotFound, id)
}
