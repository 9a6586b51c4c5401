package handlers

import (
	"errors"

	apperrors "govpay/internal/errors"
	"govpay/internal/middleware"
	"govpay/internal/models"
	"govpay/internal/utils"
	"govpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps domain errors onto HTTP statuses.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var de *apperrors.DomainError
	message := err.Error()
	if errors.As(err, &de) {
		message = de.Message
	}

	switch {
	case errors.Is(err, apperrors.ErrPartialSettlement):
		log.Error("partial settlement", zap.String("path", c.Path()), zap.Error(err))
		return utils.ErrorWithCode(c, fiber.StatusInternalServerError, apperrors.CodePartialSettlement,
			"payment partially applied, reconciliation pending")
	case errors.Is(err, apperrors.ErrNotFound):
		return utils.ErrorWithCode(c, fiber.StatusNotFound, apperrors.CodeNotFound, message)
	case errors.Is(err, apperrors.ErrInvalidState):
		return utils.ErrorWithCode(c, fiber.StatusConflict, apperrors.CodeInvalidState, message)
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return utils.ErrorWithCode(c, fiber.StatusPaymentRequired, apperrors.CodeInsufficientFunds, message)
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidAmount):
		return utils.ErrorWithCode(c, fiber.StatusBadRequest, apperrors.CodeOf(err), message)
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		log.Warn("store unavailable", zap.String("path", c.Path()), zap.Error(err))
		return utils.ErrorWithCode(c, fiber.StatusServiceUnavailable, apperrors.CodeStoreUnavailable,
			"service temporarily unavailable, try again later")
	default:
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return utils.InternalError(c, "internal server error")
	}
}

func validationFailed(c *fiber.Ctx, v *validation.Validator) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation failed",
		"code":   apperrors.CodeValidationFailed,
		"fields": v.Errors,
	})
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}
