package reconciliation

import (
	"context"
	"testing"
	"time"

	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/store"
	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *Service
	wallets      wallet.Service
	transactions transaction.Service
	schedules    repositories.ScheduledBillRepository
	bills        repositories.BillRepository
}

func newFixture() *fixture {
	s := store.NewMemoryStore()
	clock := utils.NewFixedClock(now)
	ids := &utils.SequentialIDGenerator{}
	f := &fixture{
		wallets:      wallet.NewService(repositories.NewWalletRepository(s), clock, ids, wallet.Config{}, nil, nil),
		transactions: transaction.NewService(repositories.NewTransactionRepository(s), clock, ids, nil),
		schedules:    repositories.NewScheduledBillRepository(s),
		bills:        repositories.NewBillRepository(s),
	}
	f.svc = NewService(f.wallets, f.transactions, f.schedules, f.bills, nil, clock, nil)
	return f
}

func (f *fixture) payment(t *testing.T, walletID, id string, before, amount int64) {
	t.Helper()
	_, err := f.transactions.Record(context.Background(), walletID, transaction.Entry{
		ID:            id,
		Type:          models.TransactionTypePayment,
		Amount:        decimal.NewFromInt(-amount),
		BalanceBefore: decimal.NewFromInt(before),
	})
	require.NoError(t, err)
}

func (f *fixture) claimed(t *testing.T, walletID, id, settlementID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.bills.Create(ctx, &models.Bill{ID: "bill-" + id, UserID: "u-1", Status: models.BillStatusUnpaid}))
	sb := &models.ScheduledBill{
		ID:              id,
		UserID:          "u-1",
		WalletID:        walletID,
		BillID:          "bill-" + id,
		ScheduledAmount: decimal.NewFromInt(400),
		ScheduledDate:   now,
		Status:          models.ScheduledBillStatusScheduled,
		SettlementID:    settlementID,
		CreatedAt:       now,
	}
	require.NoError(t, f.schedules.Create(ctx, sb))
	require.NoError(t, f.schedules.PutIndex(ctx, &models.ScheduledBillIndexEntry{
		ID: id, UserID: "u-1", WalletID: walletID, ScheduledDate: now,
	}))
}

func TestReconcileWallet_Consistent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(600))
	require.NoError(t, err)
	f.payment(t, w.ID, "t-1", 1000, 400)

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, report.Restored)
	assert.False(t, report.Mismatch)
	assert.Empty(t, report.ChainBreaks)
	assert.True(t, report.LedgerBalance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 1, report.TransactionSeen)
}

func TestReconcileWallet_RestoresMissingDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(1000))
	require.NoError(t, err)
	f.payment(t, w.ID, "t-1", 1000, 400)
	f.claimed(t, w.ID, "sb-1", "t-1")

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, report.Restored)
	assert.Equal(t, []string{"sb-1"}, report.Settled)

	balance, err := f.wallets.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(600)))

	sb, err := f.schedules.GetByID(ctx, "u-1", "sb-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledBillStatusPaid, sb.Status)
	assert.Equal(t, "t-1", sb.TransactionID)

	bill, err := f.bills.GetBillByID(ctx, "bill-sb-1")
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, bill.Status)

	// running again changes nothing
	report, err = f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, report.Restored)
	assert.Empty(t, report.Settled)
}

func TestReconcileWallet_ReportsMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(777))
	require.NoError(t, err)
	f.payment(t, w.ID, "t-1", 1000, 400)
	f.claimed(t, w.ID, "sb-1", "t-1")

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, report.Mismatch)
	assert.False(t, report.Restored)
	assert.Equal(t, []string{"sb-1"}, report.Pending)

	balance, err := f.wallets.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(777)))
}

func TestReconcileWallet_ReleasesClaimWithoutPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(1000))
	require.NoError(t, err)
	f.claimed(t, w.ID, "sb-1", "t-missing")

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sb-1"}, report.Released)

	sb, err := f.schedules.GetByID(ctx, "u-1", "sb-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledBillStatusScheduled, sb.Status)
	assert.Empty(t, sb.SettlementID)
}

func TestReconcileWallet_DetectsChainBreaks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(700))
	require.NoError(t, err)
	f.payment(t, w.ID, "t-1", 1000, 400)
	f.payment(t, w.ID, "t-2", 1000, 300)

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-2"}, report.ChainBreaks)
	assert.False(t, report.Mismatch)
}

func TestReconcileWallet_LaterChainBreakKeepsClaimPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(100))
	require.NoError(t, err)
	// t-1 was recorded without its debit and t-2 started from the old balance
	f.payment(t, w.ID, "t-1", 1000, 800)
	f.payment(t, w.ID, "t-2", 1000, 900)
	f.claimed(t, w.ID, "sb-1", "t-1")

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-2"}, report.ChainBreaks)
	assert.False(t, report.Mismatch)
	assert.Empty(t, report.Settled)
	assert.Equal(t, []string{"sb-1"}, report.Pending)

	sb, err := f.schedules.GetByID(ctx, "u-1", "sb-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledBillStatusScheduled, sb.Status)
	assert.Equal(t, "t-1", sb.SettlementID)

	bill, err := f.bills.GetBillByID(ctx, "bill-sb-1")
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusUnpaid, bill.Status)

	balance, err := f.wallets.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
}

func TestReconcileWallet_DropsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, err := f.wallets.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, f.schedules.PutIndex(ctx, &models.ScheduledBillIndexEntry{
		ID: "ghost", UserID: "u-1", WalletID: w.ID, ScheduledDate: now,
	}))

	report, err := f.svc.ReconcileWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, report.StaleIndex)

	entries, err := f.schedules.ListIndex(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
