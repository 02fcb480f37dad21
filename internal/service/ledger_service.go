package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/model"
	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LedgerService is the single legal path for changing a product's stock.
// Sale and return processing call the *Tx primitives inside their own
// transactions; manual adjustments and product seeding come through the
// public methods. Nothing else in the codebase writes Product.Stock.
type LedgerService interface {
	RecordAdjustment(ctx context.Context, actorID, businessID uuid.UUID, req dto.AdjustStockRequest) (*dto.MovementResponse, error)
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)
	LowStockAlerts(ctx context.Context, businessID uuid.UUID) ([]dto.LowStockAlertResponse, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error)
	// VerifyProduct recomputes the running delta sum and compares it with the
	// stored stock. A mismatch is surfaced as ConsistencyViolationError.
	VerifyProduct(ctx context.Context, productID uuid.UUID) error

	// Tx primitives — must be called inside a live transaction.
	DeductStockTx(tx *gorm.DB, productID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID, actorID uuid.UUID) (*model.InventoryMovement, error)
	RestockTx(tx *gorm.DB, productID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID, actorID uuid.UUID) (*model.InventoryMovement, error)
	SeedStockTx(tx *gorm.DB, p *model.Product, qty int, actorID uuid.UUID) (*model.InventoryMovement, error)

	// FreezeOnViolation halts further writes to the offending product when err
	// wraps a ConsistencyViolationError. Called by writers after rollback.
	FreezeOnViolation(ctx context.Context, err error)
}

type ledgerService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
}

func NewLedgerService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
) LedgerService {
	return &ledgerService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
	}
}

// ── Tx primitives ─────────────────────────────────────────────────────────────

// checkSequence verifies that the stock value observed by this writer matches
// the last recorded new_stock in the ledger. A mismatch means stock was
// written outside the ledger path (or an entry was lost) — rejected, never
// repaired in place.
func (s *ledgerService) checkSequence(tx *gorm.DB, productID uuid.UUID, previous int) error {
	last, err := s.movementRepo.LastTx(tx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // first entry for this product
	}
	if err != nil {
		return err
	}
	if last.NewStock != previous {
		return &apierror.ConsistencyViolationError{
			ProductID: productID,
			Expected:  last.NewStock,
			Got:       previous,
		}
	}
	return nil
}

func (s *ledgerService) DeductStockTx(tx *gorm.DB, productID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID, actorID uuid.UUID) (*model.InventoryMovement, error) {
	p, err := s.productRepo.FindByIDTx(tx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found: %w", productID, err)
	}
	if p.Frozen {
		return nil, &apierror.ProductFrozenError{ProductID: productID}
	}

	// Check-and-decrement in one statement; the row lock it takes serializes
	// every later writer on this product until commit.
	newStock, ok, err := s.productRepo.DecrementStockTx(tx, productID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apierror.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: p.Stock,
		}
	}
	previous := newStock + qty

	if err := s.checkSequence(tx, productID, previous); err != nil {
		return nil, err
	}

	mov := &model.InventoryMovement{
		ProductID:     productID,
		Type:          movType,
		Quantity:      -qty,
		PreviousStock: previous,
		NewStock:      newStock,
		Reason:        reason,
		ReferenceID:   refID,
		ActorID:       actorID,
	}
	if err := s.movementRepo.CreateTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *ledgerService) RestockTx(tx *gorm.DB, productID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID, actorID uuid.UUID) (*model.InventoryMovement, error) {
	p, err := s.productRepo.FindByIDTx(tx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found: %w", productID, err)
	}
	if p.Frozen {
		return nil, &apierror.ProductFrozenError{ProductID: productID}
	}

	newStock, err := s.productRepo.IncrementStockTx(tx, productID, qty)
	if err != nil {
		return nil, err
	}
	previous := newStock - qty

	if err := s.checkSequence(tx, productID, previous); err != nil {
		return nil, err
	}

	mov := &model.InventoryMovement{
		ProductID:     productID,
		Type:          movType,
		Quantity:      qty,
		PreviousStock: previous,
		NewStock:      newStock,
		Reason:        reason,
		ReferenceID:   refID,
		ActorID:       actorID,
	}
	if err := s.movementRepo.CreateTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// SeedStockTx writes the "initial" entry when a product is created with
// opening stock. The product row must already carry the opening quantity.
func (s *ledgerService) SeedStockTx(tx *gorm.DB, p *model.Product, qty int, actorID uuid.UUID) (*model.InventoryMovement, error) {
	mov := &model.InventoryMovement{
		ProductID:     p.ID,
		Type:          model.MovementInitial,
		Quantity:      qty,
		PreviousStock: 0,
		NewStock:      qty,
		Reason:        "initial stock",
		ActorID:       actorID,
	}
	if err := s.movementRepo.CreateTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// ── RecordAdjustment ──────────────────────────────────────────────────────────
// Manual stock correction. Negative deltas may not drive stock below zero;
// the same CAS guard used by sales enforces that.

func (s *ledgerService) RecordAdjustment(ctx context.Context, actorID, businessID uuid.UUID, req dto.AdjustStockRequest) (*dto.MovementResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	if req.Delta == 0 {
		return nil, errors.New("adjustment delta must be non-zero")
	}

	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found", req.ProductID)
	}
	if p.BusinessID != businessID {
		return nil, fmt.Errorf("product %s not found", req.ProductID)
	}

	var mov *model.InventoryMovement
	txErr := runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		var innerErr error
		if req.Delta < 0 {
			mov, innerErr = s.DeductStockTx(tx, productID, -req.Delta, model.MovementAdjustment, req.Reason, nil, actorID)
		} else {
			mov, innerErr = s.RestockTx(tx, productID, req.Delta, model.MovementAdjustment, req.Reason, nil, actorID)
		}
		if innerErr != nil {
			return innerErr
		}
		return s.auditRepo.CreateTx(tx, &model.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Operation:  "stock.adjust",
			EntityType: "inventory_movement",
			EntityIDs:  mov.ID.String(),
		})
	})
	if txErr != nil {
		s.FreezeOnViolation(ctx, txErr)
		return nil, txErr
	}

	resp := movementToResponse(mov)
	return &resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

func (s *ledgerService) LowStockAlerts(ctx context.Context, businessID uuid.UUID) ([]dto.LowStockAlertResponse, error) {
	products, err := s.productRepo.LowStock(ctx, businessID)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlertResponse, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, dto.LowStockAlertResponse{
			ProductID: p.ID.String(),
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
		})
	}
	return alerts, nil
}

func (s *ledgerService) ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	movements, total, err := s.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, movementToResponse(&movements[i]))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return &dto.MovementListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *ledgerService) VerifyProduct(ctx context.Context, productID uuid.UUID) error {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	sum, err := s.movementRepo.SumDeltas(ctx, productID)
	if err != nil {
		return err
	}
	if sum != p.Stock {
		return &apierror.ConsistencyViolationError{ProductID: productID, Expected: sum, Got: p.Stock}
	}
	return nil
}

// ── FreezeOnViolation ─────────────────────────────────────────────────────────

func (s *ledgerService) FreezeOnViolation(ctx context.Context, err error) {
	var violation *apierror.ConsistencyViolationError
	if !errors.As(err, &violation) {
		return
	}
	log.Error().
		Str("product_id", violation.ProductID.String()).
		Int("ledger_stock", violation.Expected).
		Int("store_stock", violation.Got).
		Msg("ledger consistency violation — freezing product")
	if freezeErr := s.productRepo.Freeze(ctx, violation.ProductID); freezeErr != nil {
		log.Error().Err(freezeErr).
			Str("product_id", violation.ProductID.String()).
			Msg("failed to freeze product after consistency violation")
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func movementToResponse(m *model.InventoryMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:            m.ID.String(),
		ProductID:     m.ProductID.String(),
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		ActorID:       m.ActorID.String(),
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.Product != nil {
		resp.Product = m.Product.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
