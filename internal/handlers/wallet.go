package handlers

import (
	"govpay/internal/models"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService wallet.Service
	log           *zap.Logger
}

func NewWalletHandler(walletService wallet.Service, log *zap.Logger) *WalletHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletHandler{walletService: walletService, log: log.Named("handlers")}
}

// ownedWallet loads the wallet in :id if the caller owns it. Admins may read
// any wallet; everyone else gets 404 for wallets they do not own.
func ownedWallet(c *fiber.Ctx, svc wallet.Service, claims *models.UserClaims) (*models.Wallet, error) {
	w, err := svc.GetWallet(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if w.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, wallet.ErrWalletNotFound
	}
	return w, nil
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := ownedWallet(c, h.walletService, claims)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}
