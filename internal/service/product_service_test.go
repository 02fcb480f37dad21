package service_test

import (
	"context"
	"testing"

	"posledger/internal/dto"
	"posledger/internal/model"
	"posledger/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	svc          service.ProductService
	productRepo  *stubProductRepo
	movementRepo *stubMovementRepo
	auditRepo    *stubAuditRepo
	businessID   uuid.UUID
	actorID      uuid.UUID
}

func newProductFixture() *productFixture {
	f := &productFixture{
		productRepo:  newStubProductRepo(),
		movementRepo: newStubMovementRepo(),
		auditRepo:    &stubAuditRepo{},
		businessID:   uuid.New(),
		actorID:      uuid.New(),
	}
	ledger := service.NewLedgerService(f.productRepo, f.movementRepo, f.auditRepo)
	f.svc = service.NewProductService(f.productRepo, f.auditRepo, ledger, nil)
	return f
}

func TestCreateProduct_SeedsLedger(t *testing.T) {
	f := newProductFixture()

	resp, err := f.svc.Create(context.Background(), f.actorID, f.businessID, dto.CreateProductRequest{
		Barcode:      "7791234567890",
		Name:         "Espresso beans 1kg",
		Category:     "coffee",
		CostPrice:    decimal.NewFromFloat(9.50),
		UnitPrice:    decimal.NewFromFloat(18.00),
		OpeningStock: 12,
		MinStock:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Stock)

	id := uuid.MustParse(resp.ID)
	movs := f.movementRepo.all(id)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovementInitial, movs[0].Type)
	assert.Equal(t, 12, movs[0].Quantity)
	assert.Equal(t, 0, movs[0].PreviousStock)
	assert.Equal(t, 12, movs[0].NewStock)
	assert.Len(t, f.auditRepo.byOperation("product.create"), 1)
}

func TestCreateProduct_NoOpeningStock(t *testing.T) {
	f := newProductFixture()

	resp, err := f.svc.Create(context.Background(), f.actorID, f.businessID, dto.CreateProductRequest{
		Barcode:   "7790000000001",
		Name:      "Filter paper",
		Category:  "coffee",
		UnitPrice: decimal.NewFromFloat(2.20),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Stock)
	assert.Empty(t, f.movementRepo.all(uuid.MustParse(resp.ID)))
}

func TestCreateProduct_DuplicateBarcode(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.Create(context.Background(), f.actorID, f.businessID, dto.CreateProductRequest{
		Barcode:   "7795555555550",
		Name:      "Grinder",
		Category:  "equipment",
		UnitPrice: decimal.NewFromFloat(120.00),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.actorID, f.businessID, dto.CreateProductRequest{
		Barcode:   "7795555555550",
		Name:      "Grinder v2",
		Category:  "equipment",
		UnitPrice: decimal.NewFromFloat(130.00),
	})
	assert.ErrorContains(t, err, "already registered")
}
