package scheduledbill

import "govpay/internal/models"

var statusLabels = map[models.ScheduledBillStatus][2]string{
	models.ScheduledBillStatusScheduled: {"مجدولة", "Scheduled"},
	models.ScheduledBillStatusPaid:      {"مدفوعة", "Paid"},
	models.ScheduledBillStatusCancelled: {"ملغاة", "Cancelled"},
	models.ScheduledBillStatusFailed:    {"فشلت", "Failed"},
}

// StatusLabel returns display text for status in lang ("ar" or "en").
// Other languages get English; unknown statuses are returned as is.
func StatusLabel(status models.ScheduledBillStatus, lang string) string {
	labels, ok := statusLabels[status]
	if !ok {
		return string(status)
	}
	if lang == "ar" {
		return labels[0]
	}
	return labels[1]
}
