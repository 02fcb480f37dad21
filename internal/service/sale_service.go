package service

import (
	"context"
	"fmt"
	"time"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/model"
	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dispatcher enqueues post-commit jobs for the worker pool. Implemented by
// worker.Dispatcher; nil in unit tests.
type Dispatcher interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID, email *string)
	EnqueueLowStockAlert(ctx context.Context, productID uuid.UUID)
}

type SaleService interface {
	CreateSale(ctx context.Context, cashierID, businessID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	VoidSale(ctx context.Context, actorID, businessID uuid.UUID, saleID uuid.UUID, req dto.VoidSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, businessID, saleID uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, businessID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	shiftRepo   repository.ShiftRepository
	returnRepo  repository.ReturnRepository
	auditRepo   repository.AuditRepository
	ledger      LedgerService
	dispatcher  Dispatcher
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	shiftRepo repository.ShiftRepository,
	returnRepo repository.ReturnRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	dispatcher Dispatcher,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		shiftRepo:   shiftRepo,
		returnRepo:  returnRepo,
		auditRepo:   auditRepo,
		ledger:      ledger,
		dispatcher:  dispatcher,
	}
}

// resolvedLine carries a request line after product lookup and price snapshot.
type resolvedLine struct {
	product  *model.Product
	quantity int
	subtotal decimal.Decimal
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// Everything a sale touches — sale row, lines, stock decrements, ledger
// entries, the shift's cash movement and the audit record — commits in one
// transaction. Receipt and low-stock jobs go out only after commit.

func (s *saleService) CreateSale(ctx context.Context, cashierID, businessID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("invalid shift_id: %w", err)
	}
	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil || shift.BusinessID != businessID {
		return nil, &apierror.ShiftNotOpenError{ShiftID: shiftID}
	}
	if shift.Status != model.ShiftOpen {
		return nil, &apierror.ShiftNotOpenError{ShiftID: shiftID}
	}

	resolved, err := s.resolveLines(ctx, businessID, req.Lines)
	if err != nil {
		return nil, err
	}

	linesTotal := decimal.Zero
	for _, rl := range resolved {
		linesTotal = linesTotal.Add(rl.subtotal)
	}
	chargesTotal := decimal.Zero
	for _, c := range req.Charges {
		chargesTotal = chargesTotal.Add(c.Amount)
	}
	total := linesTotal.Add(chargesTotal)

	var (
		sale         model.Sale
		lowStock     []uuid.UUID
		attemptsUsed int
		txErr        error
	)
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		attemptsUsed = attempt + 1
		sale = model.Sale{}
		lowStock = lowStock[:0]

		txErr = runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
			ticket, innerErr := s.saleRepo.NextTicketNumber(ctx, tx)
			if innerErr != nil {
				return innerErr
			}

			sale = model.Sale{
				BusinessID:    businessID,
				TicketNumber:  ticket,
				ShiftID:       shiftID,
				CashierID:     cashierID,
				CustomerRef:   req.CustomerRef,
				CustomerEmail: req.CustomerEmail,
				LinesTotal:    linesTotal,
				ChargesTotal:  chargesTotal,
				Total:         total,
				PaymentMethod: req.PaymentMethod,
				Status:        model.SaleCompleted,
			}
			for _, rl := range resolved {
				sale.Lines = append(sale.Lines, model.SaleLine{
					ProductID: rl.product.ID,
					Quantity:  rl.quantity,
					UnitPrice: rl.product.UnitPrice,
					Subtotal:  rl.subtotal,
				})
			}
			for _, c := range req.Charges {
				sale.Charges = append(sale.Charges, model.SaleCharge{Label: c.Label, Amount: c.Amount})
			}
			if innerErr := s.saleRepo.Create(ctx, tx, &sale); innerErr != nil {
				return innerErr
			}

			entityIDs := sale.ID.String()
			for _, rl := range resolved {
				mov, innerErr := s.ledger.DeductStockTx(
					tx, rl.product.ID, rl.quantity,
					model.MovementSale, fmt.Sprintf("sale #%d", ticket),
					&sale.ID, cashierID,
				)
				if innerErr != nil {
					return innerErr
				}
				entityIDs += "," + mov.ID.String()
				if mov.NewStock <= rl.product.MinStock {
					lowStock = append(lowStock, rl.product.ID)
				}
			}

			if innerErr := s.shiftRepo.CreateMovementTx(tx, &model.CashMovement{
				ShiftID:     shiftID,
				Type:        model.CashMovSale,
				Method:      req.PaymentMethod,
				Amount:      total,
				Description: fmt.Sprintf("sale #%d", ticket),
				ReferenceID: &sale.ID,
			}); innerErr != nil {
				return innerErr
			}

			return s.auditRepo.CreateTx(tx, &model.AuditRecord{
				BusinessID: businessID,
				ActorID:    cashierID,
				Operation:  "sale.create",
				EntityType: "sale",
				EntityIDs:  entityIDs,
			})
		})

		if txErr == nil || !isRetryableConflict(txErr) {
			break
		}
		log.Warn().Err(txErr).Int("attempt", attemptsUsed).Msg("sale transaction aborted by conflict, retrying")
	}
	if txErr != nil {
		if isRetryableConflict(txErr) {
			return nil, &apierror.ConflictRetryExceededError{Attempts: attemptsUsed}
		}
		s.ledger.FreezeOnViolation(ctx, txErr)
		return nil, txErr
	}

	if s.dispatcher != nil {
		s.dispatcher.EnqueueReceipt(ctx, sale.ID, req.CustomerEmail)
		for _, pid := range lowStock {
			s.dispatcher.EnqueueLowStockAlert(ctx, pid)
		}
	}

	log.Info().
		Int("ticket", sale.TicketNumber).
		Str("sale_id", sale.ID.String()).
		Str("total", total.StringFixed(2)).
		Msg("sale completed")

	return s.GetSale(ctx, businessID, sale.ID)
}

func (s *saleService) resolveLines(ctx context.Context, businessID uuid.UUID, lines []dto.SaleLineRequest) ([]resolvedLine, error) {
	seen := make(map[uuid.UUID]bool, len(lines))
	resolved := make([]resolvedLine, 0, len(lines))
	for _, l := range lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id %q: %w", l.ProductID, err)
		}
		if seen[productID] {
			return nil, fmt.Errorf("duplicate product %s: merge quantities into a single line", l.ProductID)
		}
		seen[productID] = true

		p, err := s.productRepo.FindByID(ctx, productID)
		if err != nil || p.BusinessID != businessID || !p.Active {
			return nil, fmt.Errorf("product %s not found", l.ProductID)
		}
		if p.Frozen {
			return nil, &apierror.ProductFrozenError{ProductID: productID}
		}
		// Early check for a friendly error; the transactional decrement is
		// what actually prevents overselling.
		if p.Stock < l.Quantity {
			return nil, &apierror.InsufficientStockError{
				ProductID: productID,
				Requested: l.Quantity,
				Available: p.Stock,
			}
		}
		resolved = append(resolved, resolvedLine{
			product:  p,
			quantity: l.Quantity,
			subtotal: p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return resolved, nil
}

// ── VoidSale ──────────────────────────────────────────────────────────────────
// Restocks every line, writes the inverse cash movement and flips the status,
// all in one transaction. Only allowed while the sale's shift is still open so
// closed-shift balances never change after the fact. A sale with committed
// returns cannot be voided: the restock and refund for those units already
// happened, so a full void would double them.

func (s *saleService) VoidSale(ctx context.Context, actorID, businessID uuid.UUID, saleID uuid.UUID, req dto.VoidSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil || sale.BusinessID != businessID {
		return nil, fmt.Errorf("sale %s not found", saleID)
	}
	if sale.Status != model.SaleCompleted {
		return nil, fmt.Errorf("sale #%d is already %s", sale.TicketNumber, sale.Status)
	}
	shift, err := s.shiftRepo.FindByID(ctx, sale.ShiftID)
	if err != nil || shift.Status != model.ShiftOpen {
		return nil, &apierror.ShiftNotOpenError{ShiftID: sale.ShiftID}
	}

	txErr := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		// Lock the sale row first so a concurrent return cannot slip in
		// between the check and the restock.
		if innerErr := s.saleRepo.LockTx(tx, sale.ID); innerErr != nil {
			return innerErr
		}
		hasReturns, innerErr := s.returnRepo.HasReturnsTx(tx, sale.ID)
		if innerErr != nil {
			return innerErr
		}
		if hasReturns {
			return fmt.Errorf("sale #%d has returns against it and cannot be voided", sale.TicketNumber)
		}

		entityIDs := sale.ID.String()
		for _, line := range sale.Lines {
			mov, innerErr := s.ledger.RestockTx(
				tx, line.ProductID, line.Quantity,
				model.MovementReturn, fmt.Sprintf("void of sale #%d: %s", sale.TicketNumber, req.Reason),
				&sale.ID, actorID,
			)
			if innerErr != nil {
				return innerErr
			}
			entityIDs += "," + mov.ID.String()
		}
		if innerErr := s.shiftRepo.CreateMovementTx(tx, &model.CashMovement{
			ShiftID:     sale.ShiftID,
			Type:        model.CashMovVoid,
			Method:      sale.PaymentMethod,
			Amount:      sale.Total.Neg(),
			Description: fmt.Sprintf("void of sale #%d", sale.TicketNumber),
			ReferenceID: &sale.ID,
		}); innerErr != nil {
			return innerErr
		}
		if innerErr := s.saleRepo.UpdateStatusTx(tx, sale.ID, model.SaleVoided); innerErr != nil {
			return innerErr
		}
		return s.auditRepo.CreateTx(tx, &model.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Operation:  "sale.void",
			EntityType: "sale",
			EntityIDs:  entityIDs,
		})
	})
	if txErr != nil {
		s.ledger.FreezeOnViolation(ctx, txErr)
		return nil, txErr
	}

	log.Info().Int("ticket", sale.TicketNumber).Str("reason", req.Reason).Msg("sale voided")
	return s.GetSale(ctx, businessID, sale.ID)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, businessID, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil || sale.BusinessID != businessID {
		return nil, fmt.Errorf("sale %s not found", saleID)
	}
	resp := saleToResponse(sale)
	return &resp, nil
}

func (s *saleService) ListSales(ctx context.Context, businessID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Date != "" {
		if _, err := time.Parse("2006-01-02", filter.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", filter.Date)
		}
	}
	sales, total, err := s.saleRepo.List(ctx, businessID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(sale *model.Sale) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:            sale.ID.String(),
		TicketNumber:  sale.TicketNumber,
		ShiftID:       sale.ShiftID.String(),
		CashierID:     sale.CashierID.String(),
		LinesTotal:    sale.LinesTotal,
		ChargesTotal:  sale.ChargesTotal,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
		Status:        sale.Status,
		CreatedAt:     sale.CreatedAt.Format(time.RFC3339),
	}
	if sale.Cashier != nil {
		resp.CashierName = sale.Cashier.Name
	}
	for _, line := range sale.Lines {
		lr := dto.SaleLineResponse{
			ID:        line.ID.String(),
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		}
		if line.Product != nil {
			lr.Product = line.Product.Name
		}
		resp.Lines = append(resp.Lines, lr)
	}
	for _, c := range sale.Charges {
		resp.Charges = append(resp.Charges, dto.ChargeResponse{Label: c.Label, Amount: c.Amount})
	}
	return resp
}
