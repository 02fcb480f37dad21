package repository

import (
	"context"

	"posledger/internal/dto"
	"posledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
//
// Stock columns are only ever touched by the *Tx methods below, always inside
// the same transaction as the matching InventoryMovement row.
type ProductRepository interface {
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context, businessID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// DecrementStockTx is the compare-and-swap at the heart of the no-oversell
	// guarantee: the stock check and decrement are one statement, and the row
	// lock it takes serializes all later writers on the same product until
	// commit. Returns (newStock, false, nil) with ok=false when stock < qty.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (newStock int, ok bool, err error)

	// IncrementStockTx adds qty back (returns, voids, positive adjustments)
	// and returns the resulting stock.
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (newStock int, err error)

	// Freeze halts all further stock writes for a product after a ledger
	// consistency violation. Runs outside the failed transaction.
	Freeze(ctx context.Context, id uuid.UUID) error

	// LowStock returns active products at or below their minimum threshold.
	LowStock(ctx context.Context, businessID uuid.UUID) ([]model.Product, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ? AND active = true", barcode).First(&p).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, businessID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("business_id = ?", businessID)

	// Active filter: "false" = inactive, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.Barcode != "" {
		q = q.Where("barcode = ?", filter.Barcode)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", false).Error
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (int, bool, error) {
	var newStock int
	res := tx.Raw(
		`UPDATE products SET stock = stock - ?, updated_at = now()
		 WHERE id = ? AND stock >= ?
		 RETURNING stock`, qty, id, qty).Scan(&newStock)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return newStock, true, nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	var newStock int
	res := tx.Raw(
		`UPDATE products SET stock = stock + ?, updated_at = now()
		 WHERE id = ?
		 RETURNING stock`, qty, id).Scan(&newStock)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return newStock, nil
}

func (r *productRepo) Freeze(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("frozen", true).Error
}

func (r *productRepo) LowStock(ctx context.Context, businessID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND active = true AND stock <= min_stock", businessID).
		Order("stock ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }
