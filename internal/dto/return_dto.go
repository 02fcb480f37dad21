package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ReturnLineRequest struct {
	SaleLineID string `json:"sale_line_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity"     validate:"required,min=1"`
}

type CreateReturnRequest struct {
	SaleID  string              `json:"sale_id"  validate:"required,uuid"`
	ShiftID string              `json:"shift_id" validate:"required,uuid"`
	Lines   []ReturnLineRequest `json:"lines"    validate:"required,min=1,dive"`
	Reason  string              `json:"reason"   validate:"required,min=3"`
	// Type decides the cash effect: "return" and "credit_note" refund money,
	// "warranty" and "exchange" only reverse stock.
	Type string `json:"type" validate:"required,oneof=return warranty exchange credit_note"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReturnLineResponse struct {
	SaleLineID string          `json:"sale_line_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type ReturnResponse struct {
	ID          string               `json:"id"`
	SaleID      string               `json:"sale_id"`
	ShiftID     string               `json:"shift_id"`
	Type        string               `json:"type"`
	Reason      string               `json:"reason"`
	RefundTotal decimal.Decimal      `json:"refund_total"`
	Lines       []ReturnLineResponse `json:"lines"`
	CreatedAt   string               `json:"created_at"`
}
