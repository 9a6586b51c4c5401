package handlers

import (
	"strings"
	"time"

	"govpay/internal/models"
	"govpay/internal/services/scheduledbill"
	"govpay/internal/utils"
	"govpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ScheduledBillHandler struct {
	service *scheduledbill.Service
	loc     *time.Location
	log     *zap.Logger
}

func NewScheduledBillHandler(service *scheduledbill.Service, loc *time.Location, log *zap.Logger) *ScheduledBillHandler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduledBillHandler{service: service, loc: loc, log: log.Named("handlers")}
}

type createScheduledBillRequest struct {
	WalletID            string                 `json:"walletId" validate:"required"`
	BillID              string                 `json:"billId" validate:"required"`
	BillReferenceNumber string                 `json:"billReferenceNumber" validate:"max=100"`
	ServiceName         string                 `json:"serviceName" validate:"required,max=200"`
	MinistryName        string                 `json:"ministryName" validate:"max=200"`
	ScheduledAmount     decimal.Decimal        `json:"scheduledAmount" validate:"gt=0"`
	ScheduledDate       string                 `json:"scheduledDate" validate:"required"`
	Metadata            map[string]interface{} `json:"metadata"`
}

// scheduledBillView adds the display label for the requested language.
type scheduledBillView struct {
	*models.ScheduledBill
	StatusLabel string `json:"statusLabel"`
}

func (h *ScheduledBillHandler) Create(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input createScheduledBillRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Struct(input)
	date, ok := parseDate(input.ScheduledDate, h.loc)
	if input.ScheduledDate != "" {
		v.Check(ok, "scheduledDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	if !v.Valid() {
		return validationFailed(c, v)
	}

	sb, err := h.service.Create(c.UserContext(), claims.UserID, scheduledbill.CreateInput{
		WalletID:            input.WalletID,
		BillID:              input.BillID,
		BillReferenceNumber: input.BillReferenceNumber,
		ServiceName:         input.ServiceName,
		MinistryName:        input.MinistryName,
		ScheduledAmount:     input.ScheduledAmount,
		ScheduledDate:       date,
		Metadata:            input.Metadata,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return utils.Created(c, fiber.Map{
		"scheduledBill": view(sb, language(c)),
	})
}

func (h *ScheduledBillHandler) List(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	status := models.ScheduledBillStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return utils.BadRequest(c, "unknown status")
	}

	bills, err := h.service.List(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	lang := language(c)
	views := make([]scheduledBillView, 0, len(bills))
	for _, sb := range bills {
		if status != "" && sb.Status != status {
			continue
		}
		views = append(views, view(sb, lang))
	}

	return utils.Success(c, fiber.Map{
		"scheduledBills": views,
		"total":          len(views),
	})
}

func (h *ScheduledBillHandler) Get(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	sb, err := h.service.Get(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"scheduledBill": view(sb, language(c)),
	})
}

func (h *ScheduledBillHandler) Stats(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	stats, err := h.service.Stats(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"stats": stats,
	})
}

func (h *ScheduledBillHandler) Cancel(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	sb, err := h.service.Cancel(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"message":       "scheduled bill cancelled",
		"scheduledBill": view(sb, language(c)),
	})
}

func (h *ScheduledBillHandler) Process(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	result, err := h.service.Process(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	if !result.Success {
		return utils.Respond(c, fiber.StatusPaymentRequired, fiber.Map{
			"success":        false,
			"error":          result.Error,
			"required_topup": result.Required,
		})
	}
	return utils.Success(c, fiber.Map{
		"success":       true,
		"transactionId": result.TransactionID,
	})
}

func view(sb *models.ScheduledBill, lang string) scheduledBillView {
	return scheduledBillView{ScheduledBill: sb, StatusLabel: scheduledbill.StatusLabel(sb.Status, lang)}
}

// language picks "ar" from ?lang= or Accept-Language, "en" otherwise.
func language(c *fiber.Ctx) string {
	lang := c.Query("lang")
	if lang == "" {
		lang = c.Get(fiber.HeaderAcceptLanguage)
	}
	if strings.HasPrefix(strings.ToLower(lang), "ar") {
		return "ar"
	}
	return "en"
}

// parseDate accepts a calendar date in loc or an RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
