// Package main is the entry point for the settlement API.
// It wires the record store, services and HTTP routes, and optionally
// starts the due-date sweeper.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"govpay/internal/config"
	"govpay/internal/handlers"
	"govpay/internal/logger"
	"govpay/internal/middleware"
	"govpay/internal/repositories"
	"govpay/internal/repositories/lock"
	"govpay/internal/routes"
	"govpay/internal/services/notification"
	"govpay/internal/services/reconciliation"
	"govpay/internal/services/scheduledbill"
	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := repositories.OpenBackend(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to open record store", zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			zl.Warn("failed to close record store", zap.Error(err))
		}
	}()

	var locker lock.Locker = lock.NewKeyedMutex()
	if backend.Redis != nil {
		locker = lock.NewRedisLocker(backend.Redis, "govpay:lock:", cfg.LockTTL)
	}

	clock := utils.NewSystemClock(cfg.Location())
	ids := utils.RandomIDGenerator{}

	walletService := wallet.NewService(
		repositories.NewWalletRepository(backend.Store), clock, ids,
		wallet.Config{DefaultCurrency: cfg.Currency}, zl,
		wallet.NewLogMetricsCollector(zl),
	)
	transactionService := transaction.NewService(repositories.NewTransactionRepository(backend.Store), clock, ids, zl)
	schedules := repositories.NewScheduledBillRepository(backend.Store)
	bills := repositories.NewBillRepository(backend.Store)

	publisher := notification.New(cfg.KafkaBrokers, cfg.KafkaTopic, zl)
	defer func() {
		if err := publisher.Close(); err != nil {
			zl.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	scheduledBillService := scheduledbill.NewService(scheduledbill.Deps{
		Schedules:    schedules,
		Bills:        bills,
		Wallets:      walletService,
		Transactions: transactionService,
		Locker:       locker,
		Publisher:    publisher,
		Clock:        clock,
		IDs:          ids,
		Log:          zl,
	})
	reconciler := reconciliation.NewService(walletService, transactionService, schedules, bills, locker, clock, zl)

	if cfg.SweepEnabled {
		go scheduledbill.NewSweeper(scheduledBillService, reconciler, cfg.SweepInterval, zl).Start(ctx)
	}

	app := fiber.New(fiber.Config{AppName: "govpay"})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization",
		AllowMethods:     "GET,POST,HEAD",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/scheduled-bills/:id/process", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			cfg.StoreBackend: backend.HealthCheck,
		}),
		ScheduledBill: handlers.NewScheduledBillHandler(scheduledBillService, cfg.Location(), zl),
		Wallet:        handlers.NewWalletHandler(walletService, zl),
		Transaction:   handlers.NewTransactionHandler(walletService, transactionService, zl),
		Admin:         handlers.NewAdminHandler(reconciler, zl),
	}, middleware.NewAuthMiddleware(cfg.JWTSecret, zl))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zl.Warn("server shutdown", zap.Error(err))
		}
	}()

	zl.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend),
		zap.Bool("sweeper", cfg.SweepEnabled))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Error("server stopped", zap.Error(err))
	}
}
