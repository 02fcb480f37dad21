package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`                     // YYYY-MM-DD; empty = today
	Status string `form:"status,default=completed"` // completed | voided | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// ChargeRequest is a labelled extra amount on top of the line items.
type ChargeRequest struct {
	Label  string          `json:"label"  validate:"required,min=1"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type CreateSaleRequest struct {
	ShiftID       string            `json:"shift_id"       validate:"required,uuid"`
	Lines         []SaleLineRequest `json:"lines"          validate:"required,min=1,dive"`
	Charges       []ChargeRequest   `json:"charges"        validate:"omitempty,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash debit credit transfer"`
	CustomerRef   *string           `json:"customer_ref"`
	// CustomerEmail: optional — when present, the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleLineResponse struct {
	ID        string          `json:"id"`
	Product   string          `json:"product"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type ChargeResponse struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	TicketNumber  int                `json:"ticket_number"`
	ShiftID       string             `json:"shift_id"`
	CashierID     string             `json:"cashier_id"`
	CashierName   string             `json:"cashier_name,omitempty"`
	Lines         []SaleLineResponse `json:"lines"`
	Charges       []ChargeResponse   `json:"charges"`
	LinesTotal    decimal.Decimal    `json:"lines_total"`
	ChargesTotal  decimal.Decimal    `json:"charges_total"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	CreatedAt     string             `json:"created_at"`
}
