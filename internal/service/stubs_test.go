package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"posledger/internal/dto"
	"posledger/internal/model"
	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories shared by the service tests. Transactions are nil in
// unit tests, so the Tx methods ignore their *gorm.DB argument.

// stubProductRepo is an in-memory ProductRepository.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, businessID uuid.UUID, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.BusinessID == businessID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, false, gorm.ErrRecordNotFound
	}
	if p.Stock < qty {
		return 0, false, nil
	}
	p.Stock -= qty
	return p.Stock, true, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	p.Stock += qty
	return p.Stock, nil
}

func (r *stubProductRepo) Freeze(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Frozen = true
	}
	return nil
}

func (r *stubProductRepo) LowStock(_ context.Context, businessID uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.BusinessID == businessID && p.Active && p.Stock <= p.MinStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubMovementRepo records ledger entries per product. Like the real table,
// commit order is carried by Seq, not by slice position or timestamp.
type stubMovementRepo struct {
	mu        sync.Mutex
	seq       int64
	movements map[uuid.UUID][]*model.InventoryMovement
}

func newStubMovementRepo() *stubMovementRepo {
	return &stubMovementRepo{movements: make(map[uuid.UUID][]*model.InventoryMovement)}
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.seq++
	m.Seq = r.seq
	m.CreatedAt = time.Now()
	r.movements[m.ProductID] = append(r.movements[m.ProductID], m)
	return nil
}

func (r *stubMovementRepo) LastTx(_ *gorm.DB, productID uuid.UUID) (*model.InventoryMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.movements[productID]
	if len(entries) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	last := entries[0]
	for _, m := range entries[1:] {
		if m.Seq > last.Seq {
			last = m
		}
	}
	return last, nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]model.InventoryMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for pid, entries := range r.movements {
		if filter.ProductID != nil && *filter.ProductID != pid {
			continue
		}
		for _, m := range entries {
			if filter.Type != "" && m.Type != filter.Type {
				continue
			}
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) SumDeltas(_ context.Context, productID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, m := range r.movements[productID] {
		sum += m.Quantity
	}
	return sum, nil
}

// all returns every entry for a product, for assertions.
func (r *stubMovementRepo) all(productID uuid.UUID) []*model.InventoryMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movements[productID]
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

// stubSaleRepo keeps sales in a map and hands out sequential tickets.
type stubSaleRepo struct {
	mu        sync.Mutex
	sales     map[uuid.UUID]*model.Sale
	ticketSeq int
	// sellerTotals backs TotalsBySeller for commission tests.
	sellerTotals []repository.SellerTotal
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Lines {
		if s.Lines[i].ID == uuid.Nil {
			s.Lines[i].ID = uuid.New()
		}
		s.Lines[i].SaleID = s.ID
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *stubSaleRepo) LockTx(_ *gorm.DB, _ uuid.UUID) error { return nil }

func (r *stubSaleRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketSeq++
	return r.ticketSeq, nil
}

func (r *stubSaleRepo) List(_ context.Context, businessID uuid.UUID, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.BusinessID == businessID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) TotalsBySeller(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]repository.SellerTotal, error) {
	return r.sellerTotals, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// stubShiftRepo holds shifts and their cash movements.
type stubShiftRepo struct {
	mu        sync.Mutex
	shifts    map[uuid.UUID]*model.CashShift
	movements []model.CashMovement
}

func newStubShiftRepo() *stubShiftRepo {
	return &stubShiftRepo{shifts: make(map[uuid.UUID]*model.CashShift)}
}

func (r *stubShiftRepo) Create(_ context.Context, s *model.CashShift) error {
	return r.CreateTx(nil, s)
}

func (r *stubShiftRepo) CreateTx(_ *gorm.DB, s *model.CashShift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.shifts[s.ID] = s
	return nil
}

func (r *stubShiftRepo) UpdateTx(_ *gorm.DB, s *model.CashShift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[s.ID] = s
	return nil
}

func (r *stubShiftRepo) Update(_ context.Context, s *model.CashShift) error {
	return r.UpdateTx(nil, s)
}

func (r *stubShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubShiftRepo) FindOpenByRegister(_ context.Context, registerID int) (*model.CashShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.RegisterID == registerID && s.Status == model.ShiftOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShiftRepo) FindOpenByCashier(_ context.Context, cashierID uuid.UUID) (*model.CashShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.CashierID == cashierID && s.Status == model.ShiftOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShiftRepo) History(_ context.Context, businessID uuid.UUID, _, _ int) ([]model.CashShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashShift
	for _, s := range r.shifts {
		if s.BusinessID == businessID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubShiftRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	return r.CreateMovementTx(nil, m)
}

func (r *stubShiftRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubShiftRepo) SumMovementsByMethod(_ context.Context, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, m := range r.movements {
		if m.ShiftID == shiftID {
			sums[m.Method] = sums[m.Method].Add(m.Amount)
		}
	}
	return sums, nil
}

// movementsOfType returns recorded cash movements matching a type.
func (r *stubShiftRepo) movementsOfType(movType string) []model.CashMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.Type == movType {
			out = append(out, m)
		}
	}
	return out
}

func (r *stubShiftRepo) DB() *gorm.DB { return nil }

var _ repository.ShiftRepository = (*stubShiftRepo)(nil)

// stubReturnRepo stores returns and answers ReturnedQuantityTx from them.
type stubReturnRepo struct {
	mu      sync.Mutex
	returns map[uuid.UUID]*model.Return
	// refundTotals backs RefundTotalsBySeller for commission tests.
	refundTotals []repository.SellerTotal
}

func newStubReturnRepo() *stubReturnRepo {
	return &stubReturnRepo{returns: make(map[uuid.UUID]*model.Return)}
}

func (r *stubReturnRepo) CreateTx(_ *gorm.DB, ret *model.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	for i := range ret.Lines {
		if ret.Lines[i].ID == uuid.Nil {
			ret.Lines[i].ID = uuid.New()
		}
		ret.Lines[i].ReturnID = ret.ID
	}
	ret.CreatedAt = time.Now()
	r.returns[ret.ID] = ret
	return nil
}

func (r *stubReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Return, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ret, nil
}

func (r *stubReturnRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.Return, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Return
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (r *stubReturnRepo) HasReturnsTx(_ *gorm.DB, saleID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubReturnRepo) ReturnedQuantityTx(_ *gorm.DB, saleLineID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, ret := range r.returns {
		for _, l := range ret.Lines {
			if l.SaleLineID == saleLineID {
				total += l.Quantity
			}
		}
	}
	return total, nil
}

func (r *stubReturnRepo) RefundTotalsBySeller(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]repository.SellerTotal, error) {
	return r.refundTotals, nil
}

var _ repository.ReturnRepository = (*stubReturnRepo)(nil)

// stubAuditRepo captures audit records for assertion.
type stubAuditRepo struct {
	mu      sync.Mutex
	records []model.AuditRecord
}

func (r *stubAuditRepo) CreateTx(_ *gorm.DB, a *model.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.records = append(r.records, *a)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, _ uuid.UUID, _ dto.AuditFilter) ([]model.AuditRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records, int64(len(r.records)), nil
}

// byOperation returns records matching one operation name.
func (r *stubAuditRepo) byOperation(op string) []model.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditRecord
	for _, rec := range r.records {
		if rec.Operation == op {
			out = append(out, rec)
		}
	}
	return out
}

var _ repository.AuditRepository = (*stubAuditRepo)(nil)

// stubUserRepo serves the commission tests.
type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context, businessID uuid.UUID, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.BusinessID != businessID {
			continue
		}
		if !includeInactive && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.Active = true
	}
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// errIntentional marks failures injected by tests.
var errIntentional = errors.New("intentional failure")
