package repository

import (
	"context"
	"time"

	"posledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	CreateTx(tx *gorm.DB, ret *model.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Return, error)
	// HasReturnsTx reports whether any return was committed against a sale.
	// Runs inside the void transaction, after the sale row lock is held.
	HasReturnsTx(tx *gorm.DB, saleID uuid.UUID) (bool, error)
	// ReturnedQuantityTx sums the quantity already returned against one sale
	// line. Runs inside the return transaction, after the product row locks
	// are held, so concurrent returns on the same sale serialize correctly.
	ReturnedQuantityTx(tx *gorm.DB, saleLineID uuid.UUID) (int, error)
	// RefundTotalsBySeller attributes refund amounts to the cashier of the
	// originating sale, scoped to sales created in [from, to).
	RefundTotalsBySeller(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]SellerTotal, error)
}

type returnRepo struct{ db *gorm.DB }

func NewReturnRepository(db *gorm.DB) ReturnRepository { return &returnRepo{db: db} }

func (r *returnRepo) CreateTx(tx *gorm.DB, ret *model.Return) error {
	return tx.Create(ret).Error
}

func (r *returnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	err := r.db.WithContext(ctx).Preload("Lines").First(&ret, id).Error
	return &ret, err
}

func (r *returnRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Return, error) {
	var rets []model.Return
	err := r.db.WithContext(ctx).Preload("Lines").
		Where("sale_id = ?", saleID).Order("created_at ASC").Find(&rets).Error
	return rets, err
}

func (r *returnRepo) HasReturnsTx(tx *gorm.DB, saleID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.Return{}).Where("sale_id = ?", saleID).Count(&n).Error
	return n > 0, err
}

func (r *returnRepo) ReturnedQuantityTx(tx *gorm.DB, saleLineID uuid.UUID) (int, error) {
	var sum int
	err := tx.Model(&model.ReturnLine{}).
		Where("sale_line_id = ?", saleLineID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *returnRepo) RefundTotalsBySeller(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]SellerTotal, error) {
	var rows []SellerTotal
	err := r.db.WithContext(ctx).Raw(
		`SELECT s.cashier_id AS seller_id, COALESCE(SUM(r.refund_total), 0) AS total
		 FROM returns r
		 JOIN sales s ON s.id = r.sale_id
		 WHERE s.business_id = ? AND s.status = ? AND s.created_at >= ? AND s.created_at < ?
		 GROUP BY s.cashier_id
		 ORDER BY s.cashier_id`, businessID, model.SaleCompleted, from, to).
		Scan(&rows).Error
	return rows, err
}
