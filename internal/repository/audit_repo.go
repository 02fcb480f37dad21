package repository

import (
	"context"

	"posledger/internal/dto"
	"posledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository writes the who-did-what side channel. CreateTx is the only
// writer and always runs inside the transaction of the mutation it records.
type AuditRepository interface {
	CreateTx(tx *gorm.DB, a *model.AuditRecord) error
	List(ctx context.Context, businessID uuid.UUID, filter dto.AuditFilter) ([]model.AuditRecord, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) CreateTx(tx *gorm.DB, a *model.AuditRecord) error {
	return tx.Create(a).Error
}

func (r *auditRepo) List(ctx context.Context, businessID uuid.UUID, filter dto.AuditFilter) ([]model.AuditRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditRecord{}).Where("business_id = ?", businessID)

	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Operation != "" {
		q = q.Where("operation = ?", filter.Operation)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var records []model.AuditRecord
	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&records).Error
	return records, total, err
}
