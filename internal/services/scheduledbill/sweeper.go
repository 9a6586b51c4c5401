package scheduledbill

import (
	"context"
	"errors"
	"time"

	apperrors "govpay/internal/errors"
	"govpay/internal/services/reconciliation"
	"govpay/internal/utils"

	"go.uber.org/zap"
)

// Reconciler repairs a wallet before its due schedules are processed.
type Reconciler interface {
	ReconcileWallet(ctx context.Context, walletID string) (*reconciliation.Report, error)
}

// SweepReport counts the outcome of one sweep.
type SweepReport struct {
	Due     int
	Paid    int
	Failed  int
	Skipped int
	Errors  int
}

// Sweeper processes schedules whose date has arrived.
type Sweeper struct {
	svc        *Service
	reconciler Reconciler
	interval   time.Duration
	log        *zap.Logger
}

func NewSweeper(svc *Service, reconciler Reconciler, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{svc: svc, reconciler: reconciler, interval: interval, log: log.Named("sweeper")}
}

// Start runs a sweep every interval until ctx is done.
func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("sweeper started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			report := w.RunOnce(ctx)
			w.log.Info("sweep finished",
				zap.Int("due", report.Due),
				zap.Int("paid", report.Paid),
				zap.Int("failed", report.Failed),
				zap.Int("skipped", report.Skipped),
				zap.Int("errors", report.Errors),
			)
		}
	}
}

// RunOnce processes every indexed schedule dated today or earlier.
func (w *Sweeper) RunOnce(ctx context.Context) SweepReport {
	var report SweepReport

	entries, err := w.svc.schedules.ListIndex(ctx)
	if err != nil {
		w.log.Error("failed to list schedule index", zap.Error(err))
		report.Errors++
		return report
	}

	today := utils.StartOfDay(w.svc.clock.Now())
	reconciled := make(map[string]bool)

	for _, entry := range entries {
		if entry.ScheduledDate.After(today) {
			break
		}
		if ctx.Err() != nil {
			return report
		}
		report.Due++

		if w.reconciler != nil && !reconciled[entry.WalletID] {
			reconciled[entry.WalletID] = true
			if _, err := w.reconciler.ReconcileWallet(ctx, entry.WalletID); err != nil {
				w.log.Warn("reconciliation failed", zap.String("wallet_id", entry.WalletID), zap.Error(err))
			}
		}

		result, err := w.svc.Process(ctx, entry.UserID, entry.ID)
		switch {
		case errors.Is(err, apperrors.ErrPartialSettlement):
			report.Errors++
			w.log.Error("scheduled bill partially settled", zap.String("scheduled_bill_id", entry.ID), zap.Error(err))
		case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrNotFound):
			report.Skipped++
		case err != nil:
			report.Errors++
			w.log.Error("failed to process scheduled bill", zap.String("scheduled_bill_id", entry.ID), zap.Error(err))
		case result.Success:
			report.Paid++
		default:
			report.Failed++
		}
	}
	return report
}
