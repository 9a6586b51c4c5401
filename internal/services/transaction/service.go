package transaction

import (
	"context"
	"fmt"
	"time"

	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/store"
	"govpay/internal/utils"

	"go.uber.org/zap"
)

type service struct {
	repo  repositories.TransactionRepository
	clock utils.Clock
	ids   utils.IDGenerator
	log   *zap.Logger
}

// NewService creates a new transaction recorder
func NewService(repo repositories.TransactionRepository, clock utils.Clock, ids utils.IDGenerator, log *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if clock == nil {
		clock = utils.NewSystemClock(time.UTC)
	}
	if ids == nil {
		ids = utils.RandomIDGenerator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{repo: repo, clock: clock, ids: ids, log: log.Named("transaction")}
}

func (s *service) Record(ctx context.Context, walletID string, entry Entry) (*models.Transaction, error) {
	if walletID == "" {
		return nil, fmt.Errorf("%w: wallet id is required", ErrInvalidEntry)
	}
	prefix, ok := ReferencePrefix(entry.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, entry.Type)
	}

	id := entry.ID
	if id == "" {
		id = s.ids.NewTransactionID()
	}
	now := s.clock.Now()

	txn := &models.Transaction{
		ID:              id,
		WalletID:        walletID,
		ReferenceNumber: s.ids.NewReference(prefix, now),
		Type:            entry.Type,
		Category:        entry.Category,
		Amount:          entry.Amount,
		BalanceBefore:   entry.BalanceBefore,
		BalanceAfter:    entry.BalanceBefore.Add(entry.Amount),
		Currency:        entry.Currency,
		Status:          models.TransactionStatusCompleted,
		Timestamp:       now,
		DescriptionAr:   entry.DescriptionAr,
		DescriptionEn:   entry.DescriptionEn,
		Metadata:        models.NewJSON(store.Sanitize(entry.Metadata)),
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		s.log.Error("failed to record transaction",
			zap.String("wallet_id", walletID),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("transaction recorded",
		zap.String("wallet_id", walletID),
		zap.String("transaction_id", id),
		zap.String("reference", txn.ReferenceNumber),
		zap.String("type", txn.Type),
		zap.String("amount", txn.Amount.String()),
	)
	return txn, nil
}

func (s *service) Get(ctx context.Context, walletID, id string) (*models.Transaction, error) {
	return s.repo.GetByID(ctx, walletID, id)
}

func (s *service) List(ctx context.Context, walletID string) ([]*models.Transaction, error) {
	return s.repo.ListByWallet(ctx, walletID)
}
