package handlers

import (
	"strconv"

	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	maxTransactionLimit = 100 // Maximum allowed transactions per page
)

type TransactionHandler struct {
	walletService      wallet.Service
	transactionService transaction.Service
	log                *zap.Logger
}

func NewTransactionHandler(walletService wallet.Service, transactionService transaction.Service, log *zap.Logger) *TransactionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransactionHandler{
		walletService:      walletService,
		transactionService: transactionService,
		log:                log.Named("handlers"),
	}
}

func (h *TransactionHandler) GetWalletTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := ownedWallet(c, h.walletService, claims)
	if err != nil {
		return respondError(c, h.log, err)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	// Enforce pagination limits
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	if limit < 1 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	txns, err := h.transactionService.List(c.UserContext(), w.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	total := len(txns)
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	return utils.Success(c, fiber.Map{
		"transactions": txns[offset:end],
		"page":         page,
		"limit":        limit,
		"total":        total,
	})
}
