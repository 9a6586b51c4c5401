package repositories

import (
	"context"
	"fmt"
	"sort"

	"govpay/internal/models"
	"govpay/internal/repositories/store"
)

// ScheduledBillRepository persists schedules under their owner and keeps
// the index of open schedules used by sweeps.
type ScheduledBillRepository interface {
	Create(ctx context.Context, bill *models.ScheduledBill) error
	GetByID(ctx context.Context, userID, id string) (*models.ScheduledBill, error)
	ListByUser(ctx context.Context, userID string) ([]*models.ScheduledBill, error)
	// CompareAndUpdate applies fields only while the stored record matches
	// expect; a lost race returns ErrStateConflict.
	CompareAndUpdate(ctx context.Context, userID, id string, expect, fields store.Document) error

	PutIndex(ctx context.Context, entry *models.ScheduledBillIndexEntry) error
	RemoveIndex(ctx context.Context, id string) error
	ListIndex(ctx context.Context) ([]*models.ScheduledBillIndexEntry, error)
}

type scheduledBillRepository struct {
	store store.RecordStore
}

func NewScheduledBillRepository(s store.RecordStore) ScheduledBillRepository {
	return &scheduledBillRepository{store: s}
}

func (r *scheduledBillRepository) Create(ctx context.Context, bill *models.ScheduledBill) error {
	doc, err := store.Encode(bill)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, scheduledBillPath(bill.UserID, bill.ID), doc); err != nil {
		return fmt.Errorf("failed to create scheduled bill: %w", err)
	}
	return nil
}

func (r *scheduledBillRepository) GetByID(ctx context.Context, userID, id string) (*models.ScheduledBill, error) {
	doc, err := r.store.Get(ctx, scheduledBillPath(userID, id))
	if err != nil {
		return nil, translate(err, ErrScheduledBillNotFound, id)
	}
	var bill models.ScheduledBill
	if err := store.Decode(doc, &bill); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled bill %s: %w", id, err)
	}
	return &bill, nil
}

func (r *scheduledBillRepository) ListByUser(ctx context.Context, userID string) ([]*models.ScheduledBill, error) {
	docs, err := r.store.List(ctx, scheduledBillsPath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled bills: %w", err)
	}
	bills := make([]*models.ScheduledBill, 0, len(docs))
	for id, doc := range docs {
		var bill models.ScheduledBill
		if err := store.Decode(doc, &bill); err != nil {
			return nil, fmt.Errorf("failed to decode scheduled bill %s: %w", id, err)
		}
		bills = append(bills, &bill)
	}
	return bills, nil
}

func (r *scheduledBillRepository) CompareAndUpdate(ctx context.Context, userID, id string, expect, fields store.Document) error {
	err := r.store.CompareAndUpdate(ctx, scheduledBillPath(userID, id), expect, fields)
	return translate(err, ErrScheduledBillNotFound, id)
}

func (r *scheduledBillRepository) PutIndex(ctx context.Context, entry *models.ScheduledBillIndexEntry) error {
	doc, err := store.Encode(entry)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, scheduleIndexPath(entry.ID), doc)
}

func (r *scheduledBillRepository) RemoveIndex(ctx context.Context, id string) error {
	return r.store.Remove(ctx, scheduleIndexPath(id))
}

// ListIndex returns open schedules ordered by scheduled date.
func (r *scheduledBillRepository) ListIndex(ctx context.Context) ([]*models.ScheduledBillIndexEntry, error) {
	docs, err := r.store.List(ctx, scheduleIndexRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule index: %w", err)
	}
	entries := make([]*models.ScheduledBillIndexEntry, 0, len(docs))
	for id, doc := range docs {
		var entry models.ScheduledBillIndexEntry
		if err := store.Decode(doc, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode index entry %s: %w", id, err)
		}
		entries = append(entries, &entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ScheduledDate.Equal(entries[j].ScheduledDate) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].ScheduledDate.Before(entries[j].ScheduledDate)
	})
	return entries, nil
}
