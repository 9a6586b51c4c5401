package scheduledbill

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "govpay/internal/errors"
	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/lock"
	"govpay/internal/repositories/store"
	"govpay/internal/services/notification"
	"govpay/internal/services/reconciliation"
	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	riyadh = time.FixedZone("AST", 3*60*60)
	now    = time.Date(2025, 4, 10, 14, 30, 0, 0, riyadh)
	today  = time.Date(2025, 4, 10, 0, 0, 0, 0, riyadh)
)

// faultyStore fails the operations selected by fail.
type faultyStore struct {
	store.RecordStore
	mu   sync.Mutex
	fail func(op, path string) bool
}

func (s *faultyStore) inject(fail func(op, path string) bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *faultyStore) check(op, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil && s.fail(op, path) {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, op+" "+path+" failed", nil)
	}
	return nil
}

func (s *faultyStore) Get(ctx context.Context, path string) (store.Document, error) {
	if err := s.check("get", path); err != nil {
		return nil, err
	}
	return s.RecordStore.Get(ctx, path)
}

func (s *faultyStore) Set(ctx context.Context, path string, doc store.Document) error {
	if err := s.check("set", path); err != nil {
		return err
	}
	return s.RecordStore.Set(ctx, path, doc)
}

func (s *faultyStore) Update(ctx context.Context, path string, fields store.Document) error {
	if err := s.check("update", path); err != nil {
		return err
	}
	return s.RecordStore.Update(ctx, path, fields)
}

func (s *faultyStore) CompareAndUpdate(ctx context.Context, path string, expect, fields store.Document) error {
	if err := s.check("cas", path); err != nil {
		return err
	}
	return s.RecordStore.CompareAndUpdate(ctx, path, expect, fields)
}

func (s *faultyStore) Remove(ctx context.Context, path string) error {
	if err := s.check("remove", path); err != nil {
		return err
	}
	return s.RecordStore.Remove(ctx, path)
}

func (s *faultyStore) List(ctx context.Context, parent string) (map[string]store.Document, error) {
	if err := s.check("list", parent); err != nil {
		return nil, err
	}
	return s.RecordStore.List(ctx, parent)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notification.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc          *Service
	store        *faultyStore
	clock        *utils.FixedClock
	wallets      wallet.Service
	transactions transaction.Service
	schedules    repositories.ScheduledBillRepository
	bills        repositories.BillRepository
	events       *recordingPublisher
	reconciler   *reconciliation.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := &faultyStore{RecordStore: store.NewMemoryStore()}
	clock := utils.NewFixedClock(now)
	ids := &utils.SequentialIDGenerator{}
	locker := lock.NewKeyedMutex()

	wallets := wallet.NewService(repositories.NewWalletRepository(fs), clock, ids, wallet.Config{}, nil, nil)
	txns := transaction.NewService(repositories.NewTransactionRepository(fs), clock, ids, nil)
	schedules := repositories.NewScheduledBillRepository(fs)
	bills := repositories.NewBillRepository(fs)
	events := &recordingPublisher{}

	return &fixture{
		svc: NewService(Deps{
			Schedules:    schedules,
			Bills:        bills,
			Wallets:      wallets,
			Transactions: txns,
			Locker:       locker,
			Publisher:    events,
			Clock:        clock,
			IDs:          ids,
		}),
		store:        fs,
		clock:        clock,
		wallets:      wallets,
		transactions: txns,
		schedules:    schedules,
		bills:        bills,
		events:       events,
		reconciler:   reconciliation.NewService(wallets, txns, schedules, bills, locker, clock, nil),
	}
}

func (f *fixture) wallet(t *testing.T, userID string, balance int64) string {
	t.Helper()
	w, err := f.wallets.CreateWallet(context.Background(), userID, models.WalletTypePersonal, decimal.NewFromInt(balance))
	require.NoError(t, err)
	return w.ID
}

func (f *fixture) bill(t *testing.T, id, userID string, amount int64) string {
	t.Helper()
	require.NoError(t, f.bills.Create(context.Background(), &models.Bill{
		ID:              id,
		UserID:          userID,
		ReferenceNumber: "PSP-" + strings.ToUpper(id),
		Amount:          decimal.NewFromInt(amount),
		PenaltyInfo:     &models.PenaltyInfo{LateFee: decimal.NewFromInt(50), DaysOverdue: 12},
		DueDate:         today,
		Status:          models.BillStatusUnpaid,
		ServiceType:     models.ServicePassports,
		ServiceName:     "Passport renewal",
		MinistryName:    "Ministry of Interior",
	}))
	return id
}

func (f *fixture) schedule(t *testing.T, userID, walletID, billID string, amount int64, date time.Time) *models.ScheduledBill {
	t.Helper()
	sb, err := f.svc.Create(context.Background(), userID, CreateInput{
		WalletID:        walletID,
		BillID:          billID,
		ServiceName:     "Passport renewal",
		ScheduledAmount: decimal.NewFromInt(amount),
		ScheduledDate:   date,
	})
	require.NoError(t, err)
	return sb
}

func (f *fixture) balance(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()
	b, err := f.wallets.GetBalance(context.Background(), walletID)
	require.NoError(t, err)
	return b
}

func (f *fixture) stored(t *testing.T, userID, id string) *models.ScheduledBill {
	t.Helper()
	sb, err := f.schedules.GetByID(context.Background(), userID, id)
	require.NoError(t, err)
	return sb
}
