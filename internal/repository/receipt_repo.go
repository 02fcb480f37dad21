package repository

import (
	"context"
	"time"

	"posledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, rc *model.Receipt) error
	Update(ctx context.Context, rc *model.Receipt) error
	FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Receipt, error)
	// FindPendingDue returns pending receipts whose next_retry_at has passed,
	// oldest first — the retry cron's work queue.
	FindPendingDue(ctx context.Context, now time.Time, limit int) ([]model.Receipt, error)
}

type receiptRepo struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository { return &receiptRepo{db: db} }

func (r *receiptRepo) Create(ctx context.Context, rc *model.Receipt) error {
	return r.db.WithContext(ctx).Create(rc).Error
}

func (r *receiptRepo) Update(ctx context.Context, rc *model.Receipt) error {
	return r.db.WithContext(ctx).Save(rc).Error
}

func (r *receiptRepo) FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).First(&rc).Error
	return &rc, err
}

func (r *receiptRepo) FindPendingDue(ctx context.Context, now time.Time, limit int) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.WithContext(ctx).
		Where("status = 'pending' AND next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&receipts).Error
	return receipts, err
}
