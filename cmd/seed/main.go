// Command seed creates a demo wallet and unpaid bills for a user and prints
// an access token for them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"govpay/internal/config"
	"govpay/internal/logger"
	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	userID := flag.String("user", "demo-user", "user id to seed")
	role := flag.String("role", models.RoleUser, "role placed in the token")
	balance := flag.String("balance", "1500.00", "opening wallet balance")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if cfg.StoreBackend == config.BackendMemory {
		zl.Warn("STORE_BACKEND is memory; seeded data is lost when this command exits")
	}

	opening, err := decimal.NewFromString(*balance)
	if err != nil {
		zl.Fatal("invalid balance", zap.String("balance", *balance), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := repositories.OpenBackend(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to open record store", zap.Error(err))
	}
	defer backend.Close()

	clock := utils.NewSystemClock(cfg.Location())
	ids := utils.RandomIDGenerator{}
	wallets := wallet.NewService(repositories.NewWalletRepository(backend.Store), clock, ids,
		wallet.Config{DefaultCurrency: cfg.Currency}, zl, nil)
	bills := repositories.NewBillRepository(backend.Store)

	w, err := wallets.CreateWallet(ctx, *userID, models.WalletTypePersonal, opening)
	if err != nil {
		zl.Fatal("failed to create wallet", zap.Error(err))
	}

	now := clock.Now()
	demo := []*models.Bill{
		{
			ReferenceNumber: "TRF-" + now.Format("20060102") + "-01",
			Amount:          decimal.RequireFromString("300.00"),
			PenaltyInfo:     &models.PenaltyInfo{LateFee: decimal.RequireFromString("50.00"), DaysOverdue: 12},
			DueDate:         now.AddDate(0, 0, -12),
			ServiceType:     models.ServiceTraffic,
			ServiceName:     "Traffic violation",
			MinistryName:    "Ministry of Interior",
		},
		{
			ReferenceNumber: "PSP-" + now.Format("20060102") + "-02",
			Amount:          decimal.RequireFromString("300.00"),
			DueDate:         now.AddDate(0, 1, 0),
			ServiceType:     models.ServicePassports,
			ServiceName:     "Passport renewal",
			MinistryName:    "General Directorate of Passports",
		},
	}
	for _, b := range demo {
		b.ID = ids.NewID()
		b.UserID = *userID
		b.WalletID = w.ID
		b.Status = models.BillStatusUnpaid
		if err := bills.Create(ctx, b); err != nil {
			zl.Fatal("failed to create bill", zap.Error(err))
		}
		zl.Info("bill seeded", zap.String("bill_id", b.ID), zap.String("total_due", b.TotalDue().String()))
	}

	token, err := utils.GenerateToken(cfg.JWTSecret, &models.UserClaims{UserID: *userID, Role: *role}, 24*time.Hour, time.Now())
	if err != nil {
		zl.Fatal("failed to sign token", zap.Error(err))
	}

	fmt.Printf("wallet: %s\n", w.ID)
	for _, b := range demo {
		fmt.Printf("bill:   %s (%s, due %s)\n", b.ID, b.ServiceName, b.TotalDue())
	}
	fmt.Printf("token:  %s\n", token)
}
