package handlers

import (
	"govpay/internal/services/reconciliation"
	"govpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	reconciler *reconciliation.Service
	log        *zap.Logger
}

func NewAdminHandler(reconciler *reconciliation.Service, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{reconciler: reconciler, log: log.Named("handlers")}
}

// ReconcileWallet repairs the wallet in :id and returns what changed.
func (h *AdminHandler) ReconcileWallet(c *fiber.Ctx) error {
	report, err := h.reconciler.ReconcileWallet(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	claims, _ := extractUserClaims(c)
	if claims != nil {
		h.log.Info("wallet reconciled by admin",
			zap.String("admin_id", claims.UserID),
			zap.String("wallet_id", report.WalletID),
		)
	}
	return utils.Success(c, fiber.Map{
		"report": report,
	})
}
