// Package scheduledbill manages deferred bill payments from creation to
// settlement or cancellation.
package scheduledbill

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"govpay/internal/models"
	"govpay/internal/repositories"
	"govpay/internal/repositories/lock"
	"govpay/internal/repositories/store"
	"govpay/internal/services/dashboard"
	"govpay/internal/services/notification"
	"govpay/internal/services/transaction"
	"govpay/internal/services/wallet"
	"govpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deps are the collaborators of Service. Publisher, Clock, IDs and Log are
// optional.
type Deps struct {
	Schedules    repositories.ScheduledBillRepository
	Bills        repositories.BillRepository
	Wallets      wallet.Service
	Transactions transaction.Service
	Locker       lock.Locker
	Publisher    notification.Publisher
	Clock        utils.Clock
	IDs          utils.IDGenerator
	Log          *zap.Logger
}

type Service struct {
	schedules    repositories.ScheduledBillRepository
	bills        repositories.BillRepository
	wallets      wallet.Service
	transactions transaction.Service
	locker       lock.Locker
	publisher    notification.Publisher
	clock        utils.Clock
	ids          utils.IDGenerator
	log          *zap.Logger
}

func NewService(d Deps) *Service {
	if d.Schedules == nil || d.Bills == nil {
		panic("scheduled bill and bill repositories are required")
	}
	if d.Wallets == nil || d.Transactions == nil {
		panic("wallet and transaction services are required")
	}
	if d.Locker == nil {
		d.Locker = lock.NewKeyedMutex()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = notification.NewLogPublisher(d.Log)
	}
	if d.Clock == nil {
		d.Clock = utils.NewSystemClock(time.UTC)
	}
	if d.IDs == nil {
		d.IDs = utils.RandomIDGenerator{}
	}
	return &Service{
		schedules:    d.Schedules,
		bills:        d.Bills,
		wallets:      d.Wallets,
		transactions: d.Transactions,
		locker:       d.Locker,
		publisher:    d.Publisher,
		clock:        d.Clock,
		ids:          d.IDs,
		log:          d.Log.Named("scheduledbill"),
	}
}

// Create validates input, snapshots the bill and persists a new schedule.
// The wallet balance is not checked here.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.ScheduledBill, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	w, err := s.wallets.GetWallet(ctx, in.WalletID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, fmt.Errorf("%w: %s", wallet.ErrWalletNotFound, in.WalletID)
	}

	bill, err := s.bills.GetBillByID(ctx, in.BillID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != userID {
		return nil, fmt.Errorf("%w: %s", repositories.ErrBillNotFound, in.BillID)
	}
	if bill.Status == models.BillStatusPaid {
		return nil, fmt.Errorf("%w: %s", ErrBillAlreadyPaid, in.BillID)
	}

	now := s.clock.Now()
	sb := &models.ScheduledBill{
		ID:                  s.ids.NewID(),
		UserID:              userID,
		WalletID:            in.WalletID,
		BillID:              in.BillID,
		BillReferenceNumber: firstNonEmpty(in.BillReferenceNumber, bill.ReferenceNumber),
		ServiceName:         in.ServiceName,
		MinistryName:        firstNonEmpty(in.MinistryName, bill.MinistryName),
		ScheduledAmount:     in.ScheduledAmount,
		ScheduledDate:       utils.StartOfDay(in.ScheduledDate.In(now.Location())),
		Status:              models.ScheduledBillStatusScheduled,
		Metadata:            models.NewJSON(store.Sanitize(in.Metadata)).Merge(billSnapshot(bill)),
		CreatedAt:           now,
	}

	// index first so no stored schedule is missing from the sweep
	if err := s.schedules.PutIndex(ctx, indexEntry(sb)); err != nil {
		return nil, err
	}
	if err := s.schedules.Create(ctx, sb); err != nil {
		s.removeIndex(ctx, sb.ID)
		return nil, err
	}

	s.log.Info("scheduled bill created",
		zap.String("scheduled_bill_id", sb.ID),
		zap.String("user_id", userID),
		zap.String("bill_id", sb.BillID),
		zap.Time("scheduled_date", sb.ScheduledDate),
	)
	s.publish(ctx, notification.EventScheduledBillCreated, sb, "")
	return sb, nil
}

func validateInput(in CreateInput) error {
	switch {
	case !in.ScheduledAmount.IsPositive():
		return ErrInvalidAmount
	case in.ScheduledDate.IsZero():
		return ErrDateRequired
	case in.WalletID == "":
		return ErrWalletRequired
	case in.BillID == "":
		return ErrBillRequired
	case in.ServiceName == "":
		return ErrServiceNameRequired
	}
	return nil
}

func billSnapshot(bill *models.Bill) models.JSON {
	penalty := decimal.Zero
	days := 0
	if bill.PenaltyInfo != nil {
		penalty = bill.PenaltyInfo.LateFee
		days = bill.PenaltyInfo.DaysOverdue
	}
	return models.JSON{
		models.MetaBaseAmount:    bill.Amount.String(),
		models.MetaPenaltyAmount: penalty.String(),
		models.MetaDaysOverdue:   days,
		models.MetaServiceType:   bill.ServiceType,
	}
}

func indexEntry(sb *models.ScheduledBill) *models.ScheduledBillIndexEntry {
	return &models.ScheduledBillIndexEntry{
		ID:            sb.ID,
		UserID:        sb.UserID,
		WalletID:      sb.WalletID,
		ScheduledDate: sb.ScheduledDate,
	}
}

// Get returns one of the user's schedules.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.ScheduledBill, error) {
	return s.schedules.GetByID(ctx, userID, id)
}

// List returns every schedule of the user, newest scheduled date first.
func (s *Service) List(ctx context.Context, userID string) ([]*models.ScheduledBill, error) {
	bills, err := s.schedules.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(bills, func(i, j int) bool {
		if bills[i].ScheduledDate.Equal(bills[j].ScheduledDate) {
			return bills[i].CreatedAt.After(bills[j].CreatedAt)
		}
		return bills[i].ScheduledDate.After(bills[j].ScheduledDate)
	})
	return bills, nil
}

// Stats summarizes the user's schedules as of now.
func (s *Service) Stats(ctx context.Context, userID string) (models.ScheduledBillStats, error) {
	bills, err := s.schedules.ListByUser(ctx, userID)
	if err != nil {
		return models.ScheduledBillStats{}, err
	}
	return dashboard.AggregateScheduledBills(bills, s.clock.Now()), nil
}

// Cancel moves an unclaimed scheduled bill to cancelled. Wallet and bill
// are untouched.
func (s *Service) Cancel(ctx context.Context, userID, id string) (*models.ScheduledBill, error) {
	sb, err := s.schedules.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sb.Status != models.ScheduledBillStatusScheduled || sb.SettlementID != "" {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyProcessed, id, sb.Status)
	}

	now := s.clock.Now()
	err = s.schedules.CompareAndUpdate(ctx, userID, id,
		store.Document{"status": models.ScheduledBillStatusScheduled, "settlementId": nil},
		store.Document{"status": models.ScheduledBillStatusCancelled, "cancelledAt": now},
	)
	if err != nil {
		if errors.Is(err, repositories.ErrStateConflict) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
		}
		return nil, err
	}
	s.removeIndex(ctx, id)

	sb.Status = models.ScheduledBillStatusCancelled
	sb.CancelledAt = &now
	s.log.Info("scheduled bill cancelled", zap.String("scheduled_bill_id", id), zap.String("user_id", userID))
	s.publish(ctx, notification.EventScheduledBillCancelled, sb, "")
	return sb, nil
}

func (s *Service) removeIndex(ctx context.Context, id string) {
	if err := s.schedules.RemoveIndex(ctx, id); err != nil {
		s.log.Warn("failed to remove index entry", zap.String("scheduled_bill_id", id), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, sb *models.ScheduledBill, reason string) {
	event := notification.Event{
		Type:            eventType,
		ScheduledBillID: sb.ID,
		UserID:          sb.UserID,
		WalletID:        sb.WalletID,
		BillID:          sb.BillID,
		Amount:          sb.ScheduledAmount.String(),
		TransactionID:   sb.TransactionID,
		Reason:          reason,
		OccurredAt:      s.clock.Now(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("scheduled_bill_id", sb.ID),
			zap.Error(err),
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
