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

type ShiftService interface {
	OpenShift(ctx context.Context, cashierID, businessID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	CloseShift(ctx context.Context, actorID, businessID uuid.UUID, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error)
	RecordManualMovement(ctx context.Context, actorID, businessID uuid.UUID, req dto.ManualMovementRequest) (*dto.ShiftResponse, error)
	ActiveShift(ctx context.Context, cashierID uuid.UUID) (*dto.ShiftResponse, error)
	Report(ctx context.Context, businessID, shiftID uuid.UUID) (*dto.ShiftResponse, error)
	History(ctx context.Context, businessID uuid.UUID, page, limit int) ([]dto.ShiftResponse, error)
}

type shiftService struct {
	shiftRepo repository.ShiftRepository
	auditRepo repository.AuditRepository
}

func NewShiftService(shiftRepo repository.ShiftRepository, auditRepo repository.AuditRepository) ShiftService {
	return &shiftService{shiftRepo: shiftRepo, auditRepo: auditRepo}
}

// ── OpenShift ─────────────────────────────────────────────────────────────────
// One open shift per register. The service check gives the friendly error;
// the partial unique index on cash_shifts backs it under races.

func (s *shiftService) OpenShift(ctx context.Context, cashierID, businessID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	if existing, err := s.shiftRepo.FindOpenByRegister(ctx, req.RegisterID); err == nil && existing != nil {
		return nil, &apierror.ShiftAlreadyOpenError{RegisterID: req.RegisterID}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	shift := model.CashShift{
		BusinessID:     businessID,
		RegisterID:     req.RegisterID,
		CashierID:      cashierID,
		OpeningBalance: req.OpeningBalance,
		Status:         model.ShiftOpen,
		OpenedAt:       time.Now(),
	}
	txErr := runTx(ctx, s.shiftRepo.DB(), func(tx *gorm.DB) error {
		if innerErr := s.shiftRepo.CreateTx(tx, &shift); innerErr != nil {
			return innerErr
		}
		return s.auditRepo.CreateTx(tx, &model.AuditRecord{
			BusinessID: businessID,
			ActorID:    cashierID,
			Operation:  "shift.open",
			EntityType: "cash_shift",
			EntityIDs:  shift.ID.String(),
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Int("register", req.RegisterID).
		Str("shift_id", shift.ID.String()).
		Str("opening", req.OpeningBalance.StringFixed(2)).
		Msg("shift opened")

	return s.buildResponse(ctx, &shift)
}

// ── CloseShift ────────────────────────────────────────────────────────────────
// Expected cash = opening balance + net cash movements. The variance is
// recorded whatever its value; closing never blocks on a mismatch.

func (s *shiftService) CloseShift(ctx context.Context, actorID, businessID uuid.UUID, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("invalid shift_id: %w", err)
	}
	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil || shift.BusinessID != businessID {
		return nil, fmt.Errorf("shift %s not found", req.ShiftID)
	}
	if shift.Status != model.ShiftOpen {
		return nil, &apierror.ShiftNotOpenError{ShiftID: shiftID}
	}

	sums, err := s.shiftRepo.SumMovementsByMethod(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	expected := shift.OpeningBalance.Add(sums[model.PayCash])
	variance := req.CountedBalance.Sub(expected)

	now := time.Now()
	shift.Status = model.ShiftClosed
	shift.ExpectedBalance = &expected
	shift.CountedBalance = &req.CountedBalance
	shift.Variance = &variance
	shift.ClosedAt = &now

	txErr := runTx(ctx, s.shiftRepo.DB(), func(tx *gorm.DB) error {
		if innerErr := s.shiftRepo.UpdateTx(tx, shift); innerErr != nil {
			return innerErr
		}
		return s.auditRepo.CreateTx(tx, &model.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Operation:  "shift.close",
			EntityType: "cash_shift",
			EntityIDs:  shift.ID.String(),
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	event := log.Info()
	if !variance.IsZero() {
		event = log.Warn()
	}
	event.
		Str("shift_id", shift.ID.String()).
		Str("expected", expected.StringFixed(2)).
		Str("counted", req.CountedBalance.StringFixed(2)).
		Str("variance", variance.StringFixed(2)).
		Msg("shift closed")

	return &dto.CloseShiftResponse{
		ShiftID:         shift.ID.String(),
		ExpectedBalance: expected,
		CountedBalance:  req.CountedBalance,
		Variance:        variance,
		Status:          shift.Status,
	}, nil
}

// ── RecordManualMovement ──────────────────────────────────────────────────────

func (s *shiftService) RecordManualMovement(ctx context.Context, actorID, businessID uuid.UUID, req dto.ManualMovementRequest) (*dto.ShiftResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("invalid shift_id: %w", err)
	}
	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil || shift.BusinessID != businessID {
		return nil, fmt.Errorf("shift %s not found", req.ShiftID)
	}
	if shift.Status != model.ShiftOpen {
		return nil, &apierror.ShiftNotOpenError{ShiftID: shiftID}
	}

	amount := req.Amount
	if req.Type == model.CashMovOut {
		amount = amount.Neg()
	}
	txErr := runTx(ctx, s.shiftRepo.DB(), func(tx *gorm.DB) error {
		if innerErr := s.shiftRepo.CreateMovementTx(tx, &model.CashMovement{
			ShiftID:     shiftID,
			Type:        req.Type,
			Method:      req.Method,
			Amount:      amount,
			Description: req.Description,
		}); innerErr != nil {
			return innerErr
		}
		return s.auditRepo.CreateTx(tx, &model.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Operation:  "shift.movement",
			EntityType: "cash_shift",
			EntityIDs:  shift.ID.String(),
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Report(ctx, businessID, shiftID)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *shiftService) ActiveShift(ctx context.Context, cashierID uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.shiftRepo.FindOpenByCashier(ctx, cashierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no open shift for cashier")
		}
		return nil, err
	}
	return s.buildResponse(ctx, shift)
}

func (s *shiftService) Report(ctx context.Context, businessID, shiftID uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil || shift.BusinessID != businessID {
		return nil, fmt.Errorf("shift %s not found", shiftID)
	}
	return s.buildResponse(ctx, shift)
}

func (s *shiftService) History(ctx context.Context, businessID uuid.UUID, page, limit int) ([]dto.ShiftResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	shifts, err := s.shiftRepo.History(ctx, businessID, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		resp, err := s.buildResponse(ctx, &shifts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *shiftService) buildResponse(ctx context.Context, shift *model.CashShift) (*dto.ShiftResponse, error) {
	sums, err := s.shiftRepo.SumMovementsByMethod(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	totals := dto.MethodTotals{
		Cash:     shift.OpeningBalance.Add(sums[model.PayCash]),
		Debit:    sums[model.PayDebit],
		Credit:   sums[model.PayCredit],
		Transfer: sums[model.PayTransfer],
	}
	totals.Total = totals.Cash.Add(totals.Debit).Add(totals.Credit).Add(totals.Transfer)

	resp := dto.ShiftResponse{
		ID:             shift.ID.String(),
		RegisterID:     shift.RegisterID,
		CashierID:      shift.CashierID.String(),
		OpeningBalance: shift.OpeningBalance,
		ExpectedTotals: totals,
		Status:         shift.Status,
		OpenedAt:       shift.OpenedAt.Format(time.RFC3339),
	}
	resp.ExpectedBalance = shift.ExpectedBalance
	resp.CountedBalance = shift.CountedBalance
	resp.Variance = shift.Variance
	if shift.ClosedAt != nil {
		closed := shift.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	return &resp, nil
}
