package dto

import "github.com/shopspring/decimal"

// CommissionFilter is bound from query string of GET /v1/commissions.
type CommissionFilter struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to"   validate:"required,datetime=2006-01-02"`
}

// CommissionRecord is a derived, recomputable view — never persisted.
// Basis = gross completed sales minus refunds attributable to in-range
// sales, so reversed revenue never pays commission.
type CommissionRecord struct {
	SellerID    string          `json:"seller_id"`
	SellerName  string          `json:"seller_name"`
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	GrossSales  decimal.Decimal `json:"gross_sales"`
	Refunds     decimal.Decimal `json:"refunds"`
	NetBasis    decimal.Decimal `json:"net_basis"`
	Rate        decimal.Decimal `json:"rate"`
	Commission  decimal.Decimal `json:"commission"`
}
