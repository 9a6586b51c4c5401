// Package routes wires handlers and middleware onto the fiber app.
package routes

import (
	"govpay/internal/handlers"
	"govpay/internal/middleware"
	"govpay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Health        *handlers.HealthHandler
	ScheduledBill *handlers.ScheduledBillHandler
	Wallet        *handlers.WalletHandler
	Transaction   *handlers.TransactionHandler
	Admin         *handlers.AdminHandler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	app.Get("/health", h.Health.HealthCheck)

	api := app.Group("/api", auth.Handler)

	setupScheduledBillRoutes(api, h.ScheduledBill)
	setupWalletRoutes(api, h.Wallet, h.Transaction)
	setupAdminRoutes(api, h.Admin)
}

func setupScheduledBillRoutes(router fiber.Router, h *handlers.ScheduledBillHandler) {
	bills := router.Group("/scheduled-bills")

	bills.Post("/", middleware.HasPermission(models.PermissionScheduleWrite), h.Create)
	bills.Get("/", middleware.HasPermission(models.PermissionScheduleRead), h.List)
	// registered before /:id so "stats" is not taken as an id
	bills.Get("/stats", middleware.HasPermission(models.PermissionScheduleRead), h.Stats)
	bills.Get("/:id", middleware.HasPermission(models.PermissionScheduleRead), h.Get)
	bills.Post("/:id/cancel", middleware.HasPermission(models.PermissionScheduleWrite), h.Cancel)
	bills.Post("/:id/process", middleware.HasPermission(models.PermissionSchedulePay), h.Process)
}

func setupWalletRoutes(router fiber.Router, w *handlers.WalletHandler, t *handlers.TransactionHandler) {
	wallets := router.Group("/wallets", middleware.HasPermission(models.PermissionWalletRead))

	wallets.Get("/:id", w.GetWallet)
	wallets.Get("/:id/transactions", t.GetWalletTransactions)
}

func setupAdminRoutes(router fiber.Router, h *handlers.AdminHandler) {
	admin := router.Group("/admin", middleware.AdminOnly)

	admin.Post("/wallets/:id/reconcile", middleware.HasPermission(models.PermissionReconcileWallet), h.ReconcileWallet)
}
