package repository

import (
	"context"

	"posledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter defines filters for listing ledger entries.
type MovementFilter struct {
	ProductID *uuid.UUID
	Type      string
	Page      int
	Limit     int
}

// MovementRepository is the append-only stock ledger. There is deliberately
// no Update or Delete: reversals append compensating entries.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.InventoryMovement) error
	// LastTx returns the most recent entry for a product, or
	// gorm.ErrRecordNotFound when the product has no history yet. Callers use
	// it to verify the sequential-consistency guard before appending.
	LastTx(tx *gorm.DB, productID uuid.UUID) (*model.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error)
	// SumDeltas returns the running sum of all deltas for a product —
	// by the ledger invariant it must equal the product's current stock.
	SumDeltas(ctx context.Context, productID uuid.UUID) (int, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.InventoryMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) LastTx(tx *gorm.DB, productID uuid.UUID) (*model.InventoryMovement, error) {
	var m model.InventoryMovement
	err := tx.Where("product_id = ?", productID).
		Order("seq DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryMovement{}).Preload("Product")
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movements []model.InventoryMovement
	err := q.Order("seq DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *movementRepo) SumDeltas(ctx context.Context, productID uuid.UUID) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&model.InventoryMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}
