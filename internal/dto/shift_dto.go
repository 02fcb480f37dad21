package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	RegisterID     int             `json:"register_id"     validate:"required,min=1"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

type CloseShiftRequest struct {
	ShiftID        string          `json:"shift_id"        validate:"required,uuid"`
	CountedBalance decimal.Decimal `json:"counted_balance" validate:"min=0"`
}

type ManualMovementRequest struct {
	ShiftID     string          `json:"shift_id"    validate:"required,uuid"`
	Type        string          `json:"type"        validate:"required,oneof=cash_in cash_out"`
	Method      string          `json:"method"      validate:"required,oneof=cash debit credit transfer"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// MethodTotals breaks shift money down by payment method.
type MethodTotals struct {
	Cash     decimal.Decimal `json:"cash"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Transfer decimal.Decimal `json:"transfer"`
	Total    decimal.Decimal `json:"total"`
}

type ShiftResponse struct {
	ID              string           `json:"id"`
	RegisterID      int              `json:"register_id"`
	CashierID       string           `json:"cashier_id"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
	ExpectedTotals  MethodTotals     `json:"expected_totals"`
	ExpectedBalance *decimal.Decimal `json:"expected_balance,omitempty"`
	CountedBalance  *decimal.Decimal `json:"counted_balance,omitempty"`
	Variance        *decimal.Decimal `json:"variance,omitempty"`
	Status          string           `json:"status"`
	OpenedAt        string           `json:"opened_at"`
	ClosedAt        *string          `json:"closed_at,omitempty"`
}

type CloseShiftResponse struct {
	ShiftID         string          `json:"shift_id"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	CountedBalance  decimal.Decimal `json:"counted_balance"`
	Variance        decimal.Decimal `json:"variance"`
	Status          string          `json:"status"`
}
