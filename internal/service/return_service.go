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

type ReturnService interface {
	CreateReturn(ctx context.Context, actorID, businessID uuid.UUID, req dto.CreateReturnRequest) (*dto.ReturnResponse, error)
	GetReturn(ctx context.Context, businessID, returnID uuid.UUID) (*dto.ReturnResponse, error)
	ListBySale(ctx context.Context, businessID, saleID uuid.UUID) ([]dto.ReturnResponse, error)
}

type returnService struct {
	returnRepo repository.ReturnRepository
	saleRepo   repository.SaleRepository
	shiftRepo  repository.ShiftRepository
	auditRepo  repository.AuditRepository
	ledger     LedgerService
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	saleRepo repository.SaleRepository,
	shiftRepo repository.ShiftRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
) ReturnService {
	return &returnService{
		returnRepo: returnRepo,
		saleRepo:   saleRepo,
		shiftRepo:  shiftRepo,
		auditRepo:  auditRepo,
		ledger:     ledger,
	}
}

// refundBearing reports whether the return type moves money. Warranty swaps
// and exchanges only reverse stock.
func refundBearing(returnType string) bool {
	return returnType == model.ReturnRefund || returnType == model.ReturnCreditNote
}

// ── CreateReturn ──────────────────────────────────────────────────────────────
// Refund amounts come from the sale line's snapshotted unit price, never the
// product's current price. The over-return check runs inside the transaction
// under the sale's row lock, so two concurrent returns can never together
// exceed what was sold.

func (s *returnService) CreateReturn(ctx context.Context, actorID, businessID uuid.UUID, req dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale_id: %w", err)
	}
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("invalid shift_id: %w", err)
	}

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil || sale.BusinessID != businessID {
		return nil, fmt.Errorf("sale %s not found", req.SaleID)
	}
	if sale.Status != model.SaleCompleted {
		return nil, fmt.Errorf("sale #%d is %s and cannot be returned", sale.TicketNumber, sale.Status)
	}

	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil || shift.BusinessID != businessID || shift.Status != model.ShiftOpen {
		return nil, &apierror.ShiftNotOpenError{ShiftID: shiftID}
	}

	saleLines := make(map[uuid.UUID]*model.SaleLine, len(sale.Lines))
	for i := range sale.Lines {
		saleLines[sale.Lines[i].ID] = &sale.Lines[i]
	}

	type requested struct {
		line     *model.SaleLine
		quantity int
	}
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	requests := make([]requested, 0, len(req.Lines))
	for _, rl := range req.Lines {
		lineID, err := uuid.Parse(rl.SaleLineID)
		if err != nil {
			return nil, fmt.Errorf("invalid sale_line_id %q: %w", rl.SaleLineID, err)
		}
		if seen[lineID] {
			return nil, fmt.Errorf("duplicate sale line %s in return", rl.SaleLineID)
		}
		seen[lineID] = true
		line, ok := saleLines[lineID]
		if !ok {
			return nil, fmt.Errorf("sale line %s does not belong to sale #%d", rl.SaleLineID, sale.TicketNumber)
		}
		requests = append(requests, requested{line: line, quantity: rl.Quantity})
	}

	var (
		ret   model.Return
		txErr error
	)
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		ret = model.Return{}

		txErr = runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
			if innerErr := s.saleRepo.LockTx(tx, saleID); innerErr != nil {
				return innerErr
			}

			// Validate every line before writing anything: a single
			// over-return rejects the whole request.
			refund := decimal.Zero
			for _, r := range requests {
				already, innerErr := s.returnRepo.ReturnedQuantityTx(tx, r.line.ID)
				if innerErr != nil {
					return innerErr
				}
				remaining := r.line.Quantity - already
				if r.quantity > remaining {
					return &apierror.OverReturnError{
						SaleLineID: r.line.ID,
						Requested:  r.quantity,
						Remaining:  remaining,
					}
				}
				refund = refund.Add(r.line.UnitPrice.Mul(decimal.NewFromInt(int64(r.quantity))))
			}
			if !refundBearing(req.Type) {
				refund = decimal.Zero
			}

			ret = model.Return{
				BusinessID:  businessID,
				SaleID:      saleID,
				ShiftID:     shiftID,
				Type:        req.Type,
				Reason:      req.Reason,
				RefundTotal: refund,
				ActorID:     actorID,
			}
			for _, r := range requests {
				ret.Lines = append(ret.Lines, model.ReturnLine{
					SaleLineID: r.line.ID,
					ProductID:  r.line.ProductID,
					Quantity:   r.quantity,
					UnitPrice:  r.line.UnitPrice,
					Subtotal:   r.line.UnitPrice.Mul(decimal.NewFromInt(int64(r.quantity))),
				})
			}
			if innerErr := s.returnRepo.CreateTx(tx, &ret); innerErr != nil {
				return innerErr
			}

			entityIDs := ret.ID.String()
			for _, r := range requests {
				mov, innerErr := s.ledger.RestockTx(
					tx, r.line.ProductID, r.quantity,
					model.MovementReturn, fmt.Sprintf("return against sale #%d", sale.TicketNumber),
					&ret.ID, actorID,
				)
				if innerErr != nil {
					return innerErr
				}
				entityIDs += "," + mov.ID.String()
			}

			// Stored negative so shift sums stay a plain SUM. Always in the
			// original sale's payment method.
			if refund.IsPositive() {
				if innerErr := s.shiftRepo.CreateMovementTx(tx, &model.CashMovement{
					ShiftID:     shiftID,
					Type:        model.CashMovRefund,
					Method:      sale.PaymentMethod,
					Amount:      refund.Neg(),
					Description: fmt.Sprintf("refund for sale #%d", sale.TicketNumber),
					ReferenceID: &ret.ID,
				}); innerErr != nil {
					return innerErr
				}
			}

			return s.auditRepo.CreateTx(tx, &model.AuditRecord{
				BusinessID: businessID,
				ActorID:    actorID,
				Operation:  "return.create",
				EntityType: "return",
				EntityIDs:  entityIDs,
			})
		})

		if txErr == nil || !isRetryableConflict(txErr) {
			break
		}
		log.Warn().Err(txErr).Int("attempt", attempt+1).Msg("return transaction aborted by conflict, retrying")
	}
	if txErr != nil {
		if isRetryableConflict(txErr) {
			return nil, &apierror.ConflictRetryExceededError{Attempts: maxConflictRetries + 1}
		}
		s.ledger.FreezeOnViolation(ctx, txErr)
		return nil, txErr
	}

	log.Info().
		Str("return_id", ret.ID.String()).
		Int("ticket", sale.TicketNumber).
		Str("type", req.Type).
		Str("refund", ret.RefundTotal.StringFixed(2)).
		Msg("return processed")

	resp := returnToResponse(&ret)
	return &resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *returnService) GetReturn(ctx context.Context, businessID, returnID uuid.UUID) (*dto.ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil || ret.BusinessID != businessID {
		return nil, fmt.Errorf("return %s not found", returnID)
	}
	resp := returnToResponse(ret)
	return &resp, nil
}

func (s *returnService) ListBySale(ctx context.Context, businessID, saleID uuid.UUID) ([]dto.ReturnResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil || sale.BusinessID != businessID {
		return nil, fmt.Errorf("sale %s not found", saleID)
	}
	rets, err := s.returnRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReturnResponse, 0, len(rets))
	for i := range rets {
		out = append(out, returnToResponse(&rets[i]))
	}
	return out, nil
}

func returnToResponse(ret *model.Return) dto.ReturnResponse {
	resp := dto.ReturnResponse{
		ID:          ret.ID.String(),
		SaleID:      ret.SaleID.String(),
		ShiftID:     ret.ShiftID.String(),
		Type:        ret.Type,
		Reason:      ret.Reason,
		RefundTotal: ret.RefundTotal,
		CreatedAt:   ret.CreatedAt.Format(time.RFC3339),
	}
	for _, l := range ret.Lines {
		resp.Lines = append(resp.Lines, dto.ReturnLineResponse{
			SaleLineID: l.SaleLineID.String(),
			ProductID:  l.ProductID.String(),
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Subtotal:   l.Subtotal,
		})
	}
	return resp
}
