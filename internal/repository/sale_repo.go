package repository

import (
	"context"
	"time"

	"posledger/internal/dto"
	"posledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SellerTotal is one row of the grouped revenue aggregation used by the
// commission projection.
type SellerTotal struct {
	SellerID uuid.UUID
	Total    decimal.Decimal
}

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	// LockTx takes a row lock on the sale so concurrent returns against it
	// serialize and the over-return check stays race free.
	LockTx(tx *gorm.DB, id uuid.UUID) error
	NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, businessID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error)
	// TotalsBySeller sums completed sales per cashier in [from, to).
	TotalsBySeller(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]SellerTotal, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines.Product").Preload("Charges").Preload("Cashier").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepo) LockTx(tx *gorm.DB, id uuid.UUID) error {
	var locked uuid.UUID
	return tx.Raw("SELECT id FROM sales WHERE id = ? FOR UPDATE", id).Scan(&locked).Error
}

func (r *saleRepo) NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// Uses a PostgreSQL sequence for atomic ticket number generation
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_ticket_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, businessID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("business_id = ?", businessID)

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines.Product").Preload("Charges").Preload("Cashier").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepo) TotalsBySeller(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]SellerTotal, error) {
	var rows []SellerTotal
	err := r.db.WithContext(ctx).Raw(
		`SELECT cashier_id AS seller_id, COALESCE(SUM(total), 0) AS total
		 FROM sales
		 WHERE business_id = ? AND status = ? AND created_at >= ? AND created_at < ?
		 GROUP BY cashier_id
		 ORDER BY cashier_id`, businessID, model.SaleCompleted, from, to).
		Scan(&rows).Error
	return rows, err
}
