package repositories

import (
	"context"
	"fmt"
	"time"

	"govpay/internal/models"
	"govpay/internal/repositories/store"
)

// BillRepository is the read/write surface of the bill registry.
type BillRepository interface {
	Create(ctx context.Context, bill *models.Bill) error
	GetBillByID(ctx context.Context, id string) (*models.Bill, error)
	MarkBillAsPaid(ctx context.Context, id, paymentID string, at time.Time) error
}

type billRepository struct {
	store store.RecordStore
}

func NewBillRepository(s store.RecordStore) BillRepository {
	return &billRepository{store: s}
}

func (r *billRepository) Create(ctx context.Context, bill *models.Bill) error {
	doc, err := store.Encode(bill)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, billPath(bill.ID), doc); err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

func (r *billRepository) GetBillByID(ctx context.Context, id string) (*models.Bill, error) {
	doc, err := r.store.Get(ctx, billPath(id))
	if err != nil {
		return nil, translate(err, ErrBillNotFound, id)
	}
	var bill models.Bill
	if err := store.Decode(doc, &bill); err != nil {
		return nil, fmt.Errorf("failed to decode bill %s: %w", id, err)
	}
	if bill.ID == "" {
		bill.ID = id
	}
	return &bill, nil
}

func (r *billRepository) MarkBillAsPaid(ctx context.Context, id, paymentID string, at time.Time) error {
	err := r.store.Update(ctx, billPath(id), store.Document{
		"status":    models.BillStatusPaid,
		"paidAt":    at,
		"paymentId": paymentID,
	})
	return translate(err, ErrBillNotFound, id)
}
