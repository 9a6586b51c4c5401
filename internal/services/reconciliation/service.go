// Package reconciliation repairs wallets left behind by interrupted
// settlements.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	apperrors "govpay/internal/errors"
	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/lock"
	"govpay/internal/repositories/store"
	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Report describes what one reconciliation run found and changed.
type Report struct {
	WalletID        string          `json:"walletId"`
	Balance         decimal.Decimal `json:"balance"`
	LedgerBalance   decimal.Decimal `json:"ledgerBalance"`
	Restored        bool            `json:"restored"`
	Mismatch        bool            `json:"mismatch"`
	ChainBreaks     []string        `json:"chainBreaks,omitempty"`
	Settled         []string        `json:"settled,omitempty"`
	Released        []string        `json:"released,omitempty"`
	Pending         []string        `json:"pending,omitempty"`
	StaleIndex      []string        `json:"staleIndex,omitempty"`
	TransactionSeen int             `json:"transactionsSeen"`
}

type Service struct {
	wallets      wallet.Service
	transactions transaction.Service
	schedules    repositories.ScheduledBillRepository
	bills        repositories.BillRepository
	locker       lock.Locker
	clock        utils.Clock
	log          *zap.Logger
}

func NewService(
	wallets wallet.Service,
	transactions transaction.Service,
	schedules repositories.ScheduledBillRepository,
	bills repositories.BillRepository,
	locker lock.Locker,
	clock utils.Clock,
	log *zap.Logger,
) *Service {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if clock == nil {
		clock = utils.NewSystemClock(time.UTC)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		wallets:      wallets,
		transactions: transactions,
		schedules:    schedules,
		bills:        bills,
		locker:       locker,
		clock:        clock,
		log:          log.Named("reconciliation"),
	}
}

// ReconcileWallet compares the wallet balance with its ledger and finishes
// claimed settlements whose payment entry exists. Claims without an entry
// are released so the schedule can be processed again.
func (s *Service) ReconcileWallet(ctx context.Context, walletID string) (*Report, error) {
	unlock, err := s.locker.Lock(ctx, lock.WalletKey(walletID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to lock wallet", err)
	}
	defer unlock()

	balance, err := s.wallets.GetBalance(ctx, walletID)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.List(ctx, walletID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		WalletID:        walletID,
		Balance:         balance,
		LedgerBalance:   balance,
		TransactionSeen: len(txns),
	}
	report.ChainBreaks = chainBreaks(txns)

	if len(txns) > 0 {
		if err := s.reconcileBalance(ctx, report, txns[0]); err != nil {
			return nil, err
		}
	}
	if err := s.reconcileClaims(ctx, report, txns); err != nil {
		return nil, err
	}

	s.log.Info("wallet reconciled",
		zap.String("wallet_id", walletID),
		zap.Bool("restored", report.Restored),
		zap.Bool("mismatch", report.Mismatch),
		zap.Int("chain_breaks", len(report.ChainBreaks)),
		zap.Strings("settled", report.Settled),
		zap.Strings("released", report.Released),
	)
	return report, nil
}

// chainBreaks lists entries whose balanceBefore does not continue from the
// previous entry. txns is newest first.
func chainBreaks(txns []*models.Transaction) []string {
	var breaks []string
	for i := len(txns) - 2; i >= 0; i-- {
		prev, cur := txns[i+1], txns[i]
		if !cur.BalanceBefore.Equal(prev.BalanceAfter) {
			breaks = append(breaks, cur.ID)
		}
	}
	return breaks
}

// brokenSince reports whether the chain breaks at the entry id or at any
// entry written after it.
func brokenSince(txns []*models.Transaction, breaks []string, id string) bool {
	for _, t := range txns {
		if slices.Contains(breaks, t.ID) {
			return true
		}
		if t.ID == id {
			return false
		}
	}
	return true
}

func (s *Service) reconcileBalance(ctx context.Context, report *Report, newest *models.Transaction) error {
	report.LedgerBalance = newest.BalanceAfter
	if report.Balance.Equal(newest.BalanceAfter) {
		return nil
	}
	if !report.Balance.Equal(newest.BalanceBefore) {
		report.Mismatch = true
		s.log.Warn("wallet balance does not match ledger",
			zap.String("wallet_id", report.WalletID),
			zap.String("balance", report.Balance.String()),
			zap.String("ledger_balance", newest.BalanceAfter.String()),
		)
		return nil
	}

	if err := s.wallets.RestoreBalance(ctx, report.WalletID, report.Balance, newest.BalanceAfter); err != nil {
		return fmt.Errorf("failed to restore balance: %w", err)
	}
	report.Restored = true
	report.Balance = newest.BalanceAfter
	return nil
}

func (s *Service) reconcileClaims(ctx context.Context, report *Report, txns []*models.Transaction) error {
	entries, err := s.schedules.ListIndex(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.WalletID != report.WalletID {
			continue
		}
		sb, err := s.schedules.GetByID(ctx, entry.UserID, entry.ID)
		if errors.Is(err, apperrors.ErrNotFound) {
			report.StaleIndex = append(report.StaleIndex, entry.ID)
			s.removeIndex(ctx, entry.ID)
			continue
		}
		if err != nil {
			return err
		}

		switch {
		case sb.Status.Terminal():
			report.StaleIndex = append(report.StaleIndex, sb.ID)
			s.removeIndex(ctx, sb.ID)
		case sb.SettlementID == "":
			// open and unclaimed
		default:
			if err := s.reconcileClaim(ctx, report, sb, txns); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) reconcileClaim(ctx context.Context, report *Report, sb *models.ScheduledBill, txns []*models.Transaction) error {
	claimed := store.Document{"status": models.ScheduledBillStatusScheduled, "settlementId": sb.SettlementID}

	txn, err := s.transactions.Get(ctx, sb.WalletID, sb.SettlementID)
	if errors.Is(err, apperrors.ErrNotFound) {
		err := s.schedules.CompareAndUpdate(ctx, sb.UserID, sb.ID, claimed, store.Document{"settlementId": nil})
		switch {
		case errors.Is(err, repositories.ErrStateConflict):
			return nil
		case err != nil:
			return err
		}
		report.Released = append(report.Released, sb.ID)
		return nil
	}
	if err != nil {
		return err
	}

	// a later entry that does not continue the chain means this payment
	// was never debited before the wallet moved on
	if report.Mismatch || brokenSince(txns, report.ChainBreaks, txn.ID) {
		report.Pending = append(report.Pending, sb.ID)
		return nil
	}

	if err := s.bills.MarkBillAsPaid(ctx, sb.BillID, txn.ID, txn.Timestamp); err != nil {
		return err
	}
	err = s.schedules.CompareAndUpdate(ctx, sb.UserID, sb.ID, claimed, store.Document{
		"status":        models.ScheduledBillStatusPaid,
		"completedAt":   s.clock.Now(),
		"transactionId": txn.ID,
	})
	if err != nil && !errors.Is(err, repositories.ErrStateConflict) {
		return err
	}
	s.removeIndex(ctx, sb.ID)
	report.Settled = append(report.Settled, sb.ID)
	return nil
}

func (s *Service) removeIndex(ctx context.Context, id string) {
	if err := s.schedules.RemoveIndex(ctx, id); err != nil {
		s.log.Warn("failed to remove index entry", zap.String("scheduled_bill_id", id), zap.Error(err))
	}
}
