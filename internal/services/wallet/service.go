package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "govpay/internal/errors"
	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.WalletRepository
	clock   utils.Clock
	ids     utils.IDGenerator
	config  Config
	log     *zap.Logger
	metrics MetricsCollector
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	clock utils.Clock,
	ids utils.IDGenerator,
	config Config,
	log *zap.Logger,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if clock == nil {
		clock = utils.NewSystemClock(time.UTC)
	}
	if ids == nil {
		ids = utils.RandomIDGenerator{}
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		clock:   clock,
		ids:     ids,
		config:  config,
		log:     log.Named("wallet"),
		metrics: metrics,
	}
}

func (s *service) CreateWallet(ctx context.Context, userID, walletType string, opening decimal.Decimal) (*models.Wallet, error) {
	if opening.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if walletType == "" {
		walletType = models.WalletTypePersonal
	}

	now := s.clock.Now()
	wallet := &models.Wallet{
		ID:        s.ids.NewID(),
		UserID:    userID,
		Type:      walletType,
		Balance:   opening,
		Currency:  s.config.DefaultCurrency,
		Status:    models.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	s.log.Info("wallet created", zap.String("wallet_id", wallet.ID), zap.String("user_id", userID))
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	wallet, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	wallet, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (s *service) Debit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		s.metrics.RecordError("debit", "invalid_amount")
		return nil, ErrInvalidAmount
	}
	wallet, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		s.metrics.RecordError("debit", apperrors.CodeOf(err))
		return nil, err
	}
	return s.debit(ctx, wallet, wallet.Balance, amount)
}

func (s *service) DebitFrom(ctx context.Context, walletID string, expected, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		s.metrics.RecordError("debit", "invalid_amount")
		return nil, ErrInvalidAmount
	}
	wallet, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		s.metrics.RecordError("debit", apperrors.CodeOf(err))
		return nil, err
	}
	return s.debit(ctx, wallet, expected, amount)
}

func (s *service) debit(ctx context.Context, wallet *models.Wallet, expected, amount decimal.Decimal) (*models.Wallet, error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.RecordOperationDuration("debit", s.clock.Now().Sub(start))
	}()

	if wallet.Status != "" && wallet.Status != models.WalletStatusActive {
		s.metrics.RecordError("debit", "wallet_locked")
		return nil, ErrWalletLocked
	}
	if expected.LessThan(amount) {
		s.metrics.RecordError("debit", "insufficient_funds")
		return nil, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, expected, amount)
	}

	balance := expected.Sub(amount)
	now := s.clock.Now()
	if err := s.repo.UpdateBalance(ctx, wallet.ID, expected, balance, now); err != nil {
		if errors.Is(err, repositories.ErrStateConflict) {
			s.metrics.RecordError("debit", "balance_changed")
			return nil, fmt.Errorf("%w: %s", ErrBalanceChanged, wallet.ID)
		}
		s.metrics.RecordError("debit", apperrors.CodeOf(err))
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	s.metrics.RecordBalanceChange(wallet.ID, expected, balance)
	s.metrics.RecordOperationResult("debit", "success")
	s.log.Info("wallet debited",
		zap.String("wallet_id", wallet.ID),
		zap.String("amount", amount.String()),
		zap.String("balance", balance.String()),
	)

	wallet.Balance = balance
	wallet.UpdatedAt = now
	return wallet, nil
}

func (s *service) RestoreBalance(ctx context.Context, walletID string, expected, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrInvalidAmount
	}
	if err := s.repo.UpdateBalance(ctx, walletID, expected, balance, s.clock.Now()); err != nil {
		if errors.Is(err, repositories.ErrStateConflict) {
			return fmt.Errorf("%w: %s", ErrBalanceChanged, walletID)
		}
		return fmt.Errorf("failed to restore balance: %w", err)
	}

	s.metrics.RecordBalanceChange(walletID, expected, balance)
	s.log.Warn("wallet balance restored",
		zap.String("wallet_id", walletID),
		zap.String("from", expected.String()),
		zap.String("to", balance.String()),
	)
	return nil
}
