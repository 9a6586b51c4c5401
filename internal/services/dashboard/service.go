// Package dashboard reduces scheduled bills into summary figures.
package dashboard

import (
	"time"

	"govpay/internal/models"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
)

// AggregateScheduledBills summarizes bills as of today. A scheduled bill is
// overdue when its date falls before midnight of today in today's location.
func AggregateScheduledBills(bills []*models.ScheduledBill, today time.Time) models.ScheduledBillStats {
	midnight := utils.StartOfDay(today)
	stats := models.ScheduledBillStats{
		TotalScheduledAmount: decimal.Zero,
		TotalPaidAmount:      decimal.Zero,
	}

	for _, b := range bills {
		if b == nil {
			continue
		}
		switch b.Status {
		case models.ScheduledBillStatusScheduled:
			stats.TotalScheduled++
			stats.TotalScheduledAmount = stats.TotalScheduledAmount.Add(b.ScheduledAmount)
			if b.ScheduledDate.Before(midnight) {
				stats.OverdueCount++
			}
		case models.ScheduledBillStatusPaid:
			stats.TotalPaid++
			stats.TotalPaidAmount = stats.TotalPaidAmount.Add(b.ScheduledAmount)
		case models.ScheduledBillStatusCancelled:
			stats.TotalCancelled++
		case models.ScheduledBillStatusFailed:
			stats.TotalFailed++
		}
	}
	return stats
}
