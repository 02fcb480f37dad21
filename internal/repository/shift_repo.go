package repository

import (
	"context"

	"posledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ShiftRepository interface {
	Create(ctx context.Context, s *model.CashShift) error
	CreateTx(tx *gorm.DB, s *model.CashShift) error
	UpdateTx(tx *gorm.DB, s *model.CashShift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashShift, error)
	// FindOpenByRegister backs the one-open-shift-per-register invariant.
	FindOpenByRegister(ctx context.Context, registerID int) (*model.CashShift, error)
	FindOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*model.CashShift, error)
	Update(ctx context.Context, s *model.CashShift) error
	History(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.CashShift, error)

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	// SumMovementsByMethod aggregates a shift's money ledger by payment
	// method. Refunds and cash-outs are stored as negative amounts, so a
	// plain SUM yields the net figure per method.
	SumMovementsByMethod(ctx context.Context, shiftID uuid.UUID) (map[string]decimal.Decimal, error)
	DB() *gorm.DB
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) Create(ctx context.Context, s *model.CashShift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) CreateTx(tx *gorm.DB, s *model.CashShift) error {
	return tx.Create(s).Error
}

func (r *shiftRepo) UpdateTx(tx *gorm.DB, s *model.CashShift) error {
	return tx.Save(s).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).Preload("Movements").First(&s, id).Error
	return &s, err
}

func (r *shiftRepo) FindOpenByRegister(ctx context.Context, registerID int) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND status = ?", registerID, model.ShiftOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) FindOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierID, model.ShiftOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) Update(ctx context.Context, s *model.CashShift) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *shiftRepo) History(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.CashShift, error) {
	var shifts []model.CashShift
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND status = ?", businessID, model.ShiftClosed).
		Order("closed_at DESC").
		Offset(offset).Limit(limit).
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *shiftRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *shiftRepo) SumMovementsByMethod(ctx context.Context, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Method string
		Total  decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.CashMovement{}).
		Select("method, COALESCE(SUM(amount), 0) AS total").
		Where("shift_id = ?", shiftID).
		Group("method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Method] = row.Total
	}
	return sums, nil
}
