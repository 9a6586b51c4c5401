package scheduledbill

import (
	"context"
	"errors"
	"fmt"

	apperrors "govpay/internal/errors"
	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/lock"
	"govpay/internal/repositories/store"
	"govpay/internal/services/notification"
	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Process settles a scheduled bill at most once.
//
// The record is claimed by writing a settlement id while it is still
// scheduled and unclaimed. Under the wallet lock the wallet owner, the
// ledger and the bill are checked, the balance is read, the payment
// transaction is written under the settlement id, the wallet is
// debited from the read balance, the bill is marked paid and the record
// moves to paid. A failure after the transaction exists leaves the record
// claimed for the reconciler and returns ErrPartialSettlement.
func (s *Service) Process(ctx context.Context, userID, id string) (*Result, error) {
	sb, err := s.schedules.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sb.Status != models.ScheduledBillStatusScheduled || sb.SettlementID != "" {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyProcessed, id, sb.Status)
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(sb.WalletID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to lock wallet", err)
	}
	defer unlock()

	settlementID := s.ids.NewTransactionID()
	err = s.schedules.CompareAndUpdate(ctx, userID, id,
		store.Document{"status": models.ScheduledBillStatusScheduled, "settlementId": nil},
		store.Document{"settlementId": settlementID},
	)
	if err != nil {
		if errors.Is(err, repositories.ErrStateConflict) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
		}
		return nil, err
	}
	sb.SettlementID = settlementID

	log := s.log.With(
		zap.String("scheduled_bill_id", id),
		zap.String("wallet_id", sb.WalletID),
		zap.String("settlement_id", settlementID),
	)

	w, err := s.wallets.GetWallet(ctx, sb.WalletID)
	if err != nil {
		reason := models.FailureStoreUnavailable
		if errors.Is(err, apperrors.ErrNotFound) {
			reason = models.FailureWalletNotFound
		}
		s.fail(ctx, sb, reason)
		if reason == models.FailureStoreUnavailable {
			return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to read wallet balance", err)
		}
		return nil, err
	}
	if w.UserID != sb.UserID {
		if err := s.fail(ctx, sb, models.FailureWalletNotFound); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", wallet.ErrWalletNotFound, sb.WalletID)
	}
	if w.Status != "" && w.Status != models.WalletStatusActive {
		if err := s.fail(ctx, sb, models.FailureWalletInactive); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", wallet.ErrWalletLocked, sb.WalletID)
	}
	balance := w.Balance

	if err := s.checkLedger(ctx, sb, balance); err != nil {
		return nil, err
	}

	unlockBill, err := s.locker.Lock(ctx, lock.BillKey(sb.BillID))
	if err != nil {
		s.release(ctx, sb)
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to lock bill", err)
	}
	defer unlockBill()

	if err := s.checkBill(ctx, sb); err != nil {
		return nil, err
	}

	if balance.LessThan(sb.ScheduledAmount) {
		if err := s.fail(ctx, sb, models.FailureInsufficientFunds); err != nil {
			return nil, err
		}
		shortfall := sb.ScheduledAmount.Sub(balance)
		log.Info("scheduled bill failed: insufficient funds",
			zap.String("balance", balance.String()),
			zap.String("required", shortfall.String()),
		)
		return &Result{Success: false, Error: models.FailureInsufficientFunds, Required: &shortfall}, nil
	}

	written, err := s.recordPayment(ctx, sb, balance)
	if !written {
		s.fail(ctx, sb, models.FailureStoreUnavailable)
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to record payment", err)
	}
	if err != nil {
		return nil, s.partial(ctx, sb, "record", err)
	}

	if _, err := s.wallets.DebitFrom(ctx, sb.WalletID, balance, sb.ScheduledAmount); err != nil {
		return nil, s.partial(ctx, sb, "debit", err)
	}

	now := s.clock.Now()
	if err := s.bills.MarkBillAsPaid(ctx, sb.BillID, settlementID, now); err != nil {
		return nil, s.partial(ctx, sb, "mark bill paid", err)
	}

	err = s.schedules.CompareAndUpdate(ctx, userID, id,
		store.Document{"status": models.ScheduledBillStatusScheduled, "settlementId": settlementID},
		store.Document{
			"status":        models.ScheduledBillStatusPaid,
			"completedAt":   now,
			"transactionId": settlementID,
		},
	)
	if err != nil {
		return nil, s.partial(ctx, sb, "complete", err)
	}
	s.removeIndex(ctx, id)

	sb.Status = models.ScheduledBillStatusPaid
	sb.CompletedAt = &now
	sb.TransactionID = settlementID
	log.Info("scheduled bill paid", zap.String("amount", sb.ScheduledAmount.String()))
	s.publish(ctx, notification.EventScheduledBillPaid, sb, "")

	return &Result{Success: true, TransactionID: settlementID}, nil
}

// recordPayment writes the payment entry under the settlement id. written is
// false only when the entry is known not to exist; when the write fails
// and the follow-up read cannot tell, written is true and err is set.
func (s *Service) recordPayment(ctx context.Context, sb *models.ScheduledBill, balance decimal.Decimal) (written bool, err error) {
	_, err = s.transactions.Record(ctx, sb.WalletID, transaction.Entry{
		ID:            sb.SettlementID,
		Type:          models.TransactionTypePayment,
		Category:      models.CategoryScheduledBill,
		Amount:        sb.ScheduledAmount.Neg(),
		BalanceBefore: balance,
		DescriptionAr: "دفع فاتورة مجدولة: " + sb.ServiceName,
		DescriptionEn: "Scheduled bill payment: " + sb.ServiceName,
		Metadata: map[string]interface{}{
			"scheduledBillId":     sb.ID,
			"billId":              sb.BillID,
			"billReferenceNumber": sb.BillReferenceNumber,
			"ministryName":        sb.MinistryName,
		},
	})
	if err == nil {
		return true, nil
	}

	_, getErr := s.transactions.Get(ctx, sb.WalletID, sb.SettlementID)
	switch {
	case getErr == nil:
		return true, nil
	case errors.Is(getErr, apperrors.ErrNotFound):
		return false, err
	default:
		return true, err
	}
}

// checkLedger refuses to settle while the newest ledger entry was written
// but never debited, which is the state a partial settlement leaves behind.
// The claim is released and the record stays scheduled.
func (s *Service) checkLedger(ctx context.Context, sb *models.ScheduledBill, balance decimal.Decimal) error {
	txns, err := s.transactions.List(ctx, sb.WalletID)
	if err != nil {
		s.fail(ctx, sb, models.FailureStoreUnavailable)
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to read wallet ledger", err)
	}
	if len(txns) == 0 {
		return nil
	}
	newest := txns[0]
	if newest.BalanceAfter.Equal(balance) || !newest.BalanceBefore.Equal(balance) {
		return nil
	}
	s.log.Warn("wallet ledger out of step, settlement refused",
		zap.String("scheduled_bill_id", sb.ID),
		zap.String("wallet_id", sb.WalletID),
		zap.String("balance", balance.String()),
		zap.String("ledger_balance", newest.BalanceAfter.String()),
		zap.String("transaction_id", newest.ID),
	)
	if err := s.release(ctx, sb); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrReconciliationPending, sb.WalletID)
}

// checkBill fails the record when its bill is gone or already paid.
func (s *Service) checkBill(ctx context.Context, sb *models.ScheduledBill) error {
	bill, err := s.bills.GetBillByID(ctx, sb.BillID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		if failErr := s.fail(ctx, sb, models.FailureBillNotFound); failErr != nil {
			return failErr
		}
		return err
	case err != nil:
		s.fail(ctx, sb, models.FailureStoreUnavailable)
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to read bill", err)
	case bill.Status == models.BillStatusPaid:
		if err := s.fail(ctx, sb, models.FailureBillAlreadyPaid); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrBillAlreadyPaid, sb.BillID)
	}
	return nil
}

// release drops the claim so the record can be processed again.
func (s *Service) release(ctx context.Context, sb *models.ScheduledBill) error {
	err := s.schedules.CompareAndUpdate(ctx, sb.UserID, sb.ID,
		store.Document{"status": models.ScheduledBillStatusScheduled, "settlementId": sb.SettlementID},
		store.Document{"settlementId": nil},
	)
	if err != nil {
		s.log.Error("failed to release claim", zap.String("scheduled_bill_id", sb.ID), zap.Error(err))
		return err
	}
	sb.SettlementID = ""
	return nil
}

// fail moves a claimed record to failed before any money moved.
func (s *Service) fail(ctx context.Context, sb *models.ScheduledBill, reason string) error {
	now := s.clock.Now()
	err := s.schedules.CompareAndUpdate(ctx, sb.UserID, sb.ID,
		store.Document{"status": models.ScheduledBillStatusScheduled, "settlementId": sb.SettlementID},
		store.Document{
			"status":        models.ScheduledBillStatusFailed,
			"failedAt":      now,
			"failureReason": reason,
			"settlementId":  nil,
		},
	)
	if err != nil {
		s.log.Error("failed to mark scheduled bill failed",
			zap.String("scheduled_bill_id", sb.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return err
	}
	s.removeIndex(ctx, sb.ID)

	sb.Status = models.ScheduledBillStatusFailed
	sb.FailedAt = &now
	sb.FailureReason = reason
	sb.SettlementID = ""
	s.publish(ctx, notification.EventScheduledBillFailed, sb, reason)
	return nil
}

func (s *Service) partial(ctx context.Context, sb *models.ScheduledBill, step string, err error) error {
	s.log.Error("scheduled bill partially settled",
		zap.String("scheduled_bill_id", sb.ID),
		zap.String("wallet_id", sb.WalletID),
		zap.String("settlement_id", sb.SettlementID),
		zap.String("step", step),
		zap.Error(err),
	)
	s.publish(ctx, notification.EventScheduledBillPartial, sb, step)
	return apperrors.Wrap(apperrors.ErrPartialSettlement,
		fmt.Sprintf("settlement %s stopped at %s", sb.SettlementID, step), err)
}
