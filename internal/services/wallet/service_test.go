package wallet

import (
	"context"
	"testing"
	"time"

	apperrors "govpay/internal/errors"
	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/store"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	return m.Called(ctx, wallet).Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	args := m.Called(ctx, id)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, id string, expected, balance decimal.Decimal, at time.Time) error {
	return m.Called(ctx, id, expected, balance, at).Error(0)
}

var now = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, repositories.WalletRepository) {
	t.Helper()
	repo := repositories.NewWalletRepository(store.NewMemoryStore())
	svc := NewService(repo, utils.NewFixedClock(now), &utils.SequentialIDGenerator{}, Config{}, nil, nil)
	return svc, repo
}

func TestWalletService_CreateAndGetBalance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	w, err := svc.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "id-1", w.ID)
	assert.Equal(t, models.WalletTypePersonal, w.Type)
	assert.Equal(t, DefaultCurrency, w.Currency)
	assert.Equal(t, models.WalletStatusActive, w.Status)

	balance, err := svc.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))

	_, err = svc.GetBalance(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWalletService_Debit(t *testing.T) {
	tests := []struct {
		name    string
		opening int64
		amount  decimal.Decimal
		wantErr error
		want    decimal.Decimal
	}{
		{name: "successful debit", opening: 1000, amount: decimal.NewFromInt(600), want: decimal.NewFromInt(400)},
		{name: "exact balance", opening: 300, amount: decimal.NewFromInt(300), want: decimal.Zero},
		{name: "fractional amount", opening: 100, amount: decimal.RequireFromString("0.25"), want: decimal.RequireFromString("99.75")},
		{name: "insufficient funds", opening: 100, amount: decimal.NewFromInt(150), wantErr: apperrors.ErrInsufficientFunds, want: decimal.NewFromInt(100)},
		{name: "zero amount", opening: 100, amount: decimal.Zero, wantErr: apperrors.ErrInvalidAmount, want: decimal.NewFromInt(100)},
		{name: "negative amount", opening: 100, amount: decimal.NewFromInt(-5), wantErr: apperrors.ErrInvalidAmount, want: decimal.NewFromInt(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(t)
			w, err := svc.CreateWallet(ctx, "u-1", models.WalletTypePersonal, decimal.NewFromInt(tt.opening))
			require.NoError(t, err)

			_, err = svc.Debit(ctx, w.ID, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			balance, err := svc.GetBalance(ctx, w.ID)
			require.NoError(t, err)
			assert.True(t, balance.Equal(tt.want), "balance %s, want %s", balance, tt.want)
		})
	}
}

func TestWalletService_DebitFromStaleBalance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	w, err := svc.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(500))
	require.NoError(t, err)

	_, err = svc.DebitFrom(ctx, w.ID, decimal.NewFromInt(800), decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrBalanceChanged)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	balance, err := svc.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(500)))
}

func TestWalletService_DebitLockedWallet(t *testing.T) {
	repo := new(MockWalletRepository)
	svc := NewService(repo, utils.NewFixedClock(now), nil, Config{}, nil, nil)

	repo.On("GetByID", mock.Anything, "w-1").Return(&models.Wallet{
		ID: "w-1", Balance: decimal.NewFromInt(100), Status: models.WalletStatusLocked,
	}, nil)

	_, err := svc.Debit(context.Background(), "w-1", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrWalletLocked)
	repo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_DebitConflict(t *testing.T) {
	repo := new(MockWalletRepository)
	svc := NewService(repo, utils.NewFixedClock(now), nil, Config{}, nil, nil)

	repo.On("GetByID", mock.Anything, "w-1").Return(&models.Wallet{
		ID: "w-1", Balance: decimal.NewFromInt(100), Status: models.WalletStatusActive,
	}, nil)
	repo.On("UpdateBalance", mock.Anything, "w-1", mock.Anything, mock.Anything, now).
		Return(repositories.ErrStateConflict)

	_, err := svc.Debit(context.Background(), "w-1", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrBalanceChanged)
	repo.AssertExpectations(t)
}

func TestWalletService_RestoreBalance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	w, err := svc.CreateWallet(ctx, "u-1", "", decimal.NewFromInt(1000))
	require.NoError(t, err)

	err = svc.RestoreBalance(ctx, w.ID, decimal.NewFromInt(999), decimal.NewFromInt(400))
	assert.ErrorIs(t, err, ErrBalanceChanged)

	require.NoError(t, svc.RestoreBalance(ctx, w.ID, decimal.NewFromInt(1000), decimal.NewFromInt(400)))
	balance, err := svc.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(400)))
}
