package service_test

import (
	"context"
	"testing"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/model"
	"posledger/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type returnFixture struct {
	*saleFixture
	returnSvc service.ReturnService
}

func newReturnFixture() *returnFixture {
	sf := newSaleFixture()
	return &returnFixture{
		saleFixture: sf,
		returnSvc:   service.NewReturnService(sf.returnRepo, sf.saleRepo, sf.shiftRepo, sf.auditRepo, sf.ledger),
	}
}

func (f *returnFixture) createReturn(shift *model.CashShift, sale *dto.SaleResponse, lineIdx, qty int, returnType string) (*dto.ReturnResponse, error) {
	return f.returnSvc.CreateReturn(context.Background(), f.cashierID, f.businessID, dto.CreateReturnRequest{
		SaleID:  sale.ID,
		ShiftID: shift.ID.String(),
		Lines:   []dto.ReturnLineRequest{{SaleLineID: sale.Lines[lineIdx].ID, Quantity: qty}},
		Reason:  "customer changed their mind",
		Type:    returnType,
	})
}

func TestCreateReturn_PartialRefund(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Blender", 5.00, 10, 2)

	sale := f.createSale(t, shift, p.ID, 5)
	assert.Equal(t, 5, f.productRepo.products[p.ID].Stock)

	resp, err := f.createReturn(shift, sale, 0, 2, model.ReturnRefund)
	require.NoError(t, err)

	// Refund comes from the snapshotted sale line price: 2 × 5.00
	assert.Equal(t, "10", resp.RefundTotal.String())
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, 2, resp.Lines[0].Quantity)

	// Stock restored for the returned units only
	assert.Equal(t, 7, f.productRepo.products[p.ID].Stock)
	movs := f.movementRepo.all(p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, model.MovementReturn, movs[1].Type)
	assert.Equal(t, 2, movs[1].Quantity)

	// Negative cash movement in the sale's original payment method
	refunds := f.shiftRepo.movementsOfType(model.CashMovRefund)
	require.Len(t, refunds, 1)
	assert.Equal(t, "-10", refunds[0].Amount.String())
	assert.Equal(t, model.PayCash, refunds[0].Method)

	assert.Len(t, f.auditRepo.byOperation("return.create"), 1)
}

func TestCreateReturn_OverReturnRejected(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Toaster", 5.00, 10, 2)

	sale := f.createSale(t, shift, p.ID, 5)

	_, err := f.createReturn(shift, sale, 0, 2, model.ReturnRefund)
	require.NoError(t, err)

	// 5 sold, 2 already returned: asking for 4 more exceeds the remainder.
	_, err = f.createReturn(shift, sale, 0, 4, model.ReturnRefund)
	var over *apierror.OverReturnError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, 4, over.Requested)
	assert.Equal(t, 3, over.Remaining)

	// The rejected return wrote nothing
	assert.Equal(t, 7, f.productRepo.products[p.ID].Stock)
	assert.Len(t, f.movementRepo.all(p.ID), 2)
	assert.Len(t, f.shiftRepo.movementsOfType(model.CashMovRefund), 1)
}

func TestCreateReturn_WarrantySuppressesRefund(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Kettle", 18.00, 10, 2)

	sale := f.createSale(t, shift, p.ID, 2)

	resp, err := f.createReturn(shift, sale, 0, 1, model.ReturnWarranty)
	require.NoError(t, err)

	// Stock moves, money does not
	assert.True(t, resp.RefundTotal.IsZero())
	assert.Equal(t, 9, f.productRepo.products[p.ID].Stock)
	assert.Empty(t, f.shiftRepo.movementsOfType(model.CashMovRefund))
}

func TestCreateReturn_VoidedSaleRejected(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Iron", 22.00, 10, 2)

	sale := f.createSale(t, shift, p.ID, 1)
	_, err := f.svc.VoidSale(context.Background(), f.cashierID, f.businessID,
		uuid.MustParse(sale.ID), dto.VoidSaleRequest{Reason: "voided before return"})
	require.NoError(t, err)

	_, err = f.createReturn(shift, sale, 0, 1, model.ReturnRefund)
	assert.ErrorContains(t, err, "cannot be returned")
}

func TestCreateReturn_ForeignSaleLineRejected(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Mixer", 35.00, 10, 2)
	q := f.seedProduct("Scale", 15.00, 10, 2)

	saleA := f.createSale(t, shift, p.ID, 1)
	saleB := f.createSale(t, shift, q.ID, 1)

	_, err := f.returnSvc.CreateReturn(context.Background(), f.cashierID, f.businessID, dto.CreateReturnRequest{
		SaleID:  saleA.ID,
		ShiftID: shift.ID.String(),
		Lines:   []dto.ReturnLineRequest{{SaleLineID: saleB.Lines[0].ID, Quantity: 1}},
		Reason:  "line from another ticket",
		Type:    model.ReturnRefund,
	})
	assert.ErrorContains(t, err, "does not belong to sale")
}

func TestVoidSale_AfterPartialReturnRejected(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Toaster", 5.00, 10, 2)

	sale := f.createSale(t, shift, p.ID, 5)
	assert.Equal(t, 5, f.productRepo.products[p.ID].Stock)

	_, err := f.createReturn(shift, sale, 0, 2, model.ReturnRefund)
	require.NoError(t, err)
	assert.Equal(t, 7, f.productRepo.products[p.ID].Stock)

	// A full void on top of the partial return would restock units the
	// customer kept and double the cash reversal.
	_, err = f.svc.VoidSale(context.Background(), f.cashierID, f.businessID,
		uuid.MustParse(sale.ID), dto.VoidSaleRequest{Reason: "cashier error"})
	assert.ErrorContains(t, err, "cannot be voided")

	// Nothing moved: stock stays at the post-return level, the sale stays
	// completed and no void cash movement was written.
	assert.Equal(t, 7, f.productRepo.products[p.ID].Stock)
	got, err := f.svc.GetSale(context.Background(), f.businessID, uuid.MustParse(sale.ID))
	require.NoError(t, err)
	assert.Equal(t, model.SaleCompleted, got.Status)
	assert.Empty(t, f.shiftRepo.movementsOfType(model.CashMovVoid))
	assert.Empty(t, f.auditRepo.byOperation("sale.void"))
}

func TestListBySale(t *testing.T) {
	f := newReturnFixture()
	shift := f.openShift()
	p := f.seedProduct("Grill", 45.00, 10, 2)

	sale := f.createSale(t, shift, p.ID, 4)
	_, err := f.createReturn(shift, sale, 0, 1, model.ReturnRefund)
	require.NoError(t, err)
	_, err = f.createReturn(shift, sale, 0, 1, model.ReturnCreditNote)
	require.NoError(t, err)

	rets, err := f.returnSvc.ListBySale(context.Background(), f.businessID, uuid.MustParse(sale.ID))
	require.NoError(t, err)
	assert.Len(t, rets, 2)
}
