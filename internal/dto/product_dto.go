package dto

import "github.com/shopspring/decimal"

// ─── Filter ─────────────────────────────────────────────────────────────────

type ProductFilter struct {
	Barcode  string `form:"barcode"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "false" = inactive, "all" = everything, default active
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Barcode     string          `json:"barcode"     validate:"required,min=1"`
	Name        string          `json:"name"        validate:"required,min=1"`
	Description *string         `json:"description"`
	Category    string          `json:"category"    validate:"required,min=1"`
	CostPrice   decimal.Decimal `json:"cost_price"  validate:"min=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"  validate:"required"`
	// OpeningStock seeds the ledger with an "initial" movement in the same
	// transaction that creates the product.
	OpeningStock int `json:"opening_stock" validate:"min=0"`
	MinStock     int `json:"min_stock"     validate:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"    validate:"omitempty,min=1"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	MinStock    *int             `json:"min_stock"   validate:"omitempty,min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string          `json:"id"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Frozen      bool            `json:"frozen"`
	Active      bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PriceCheckResponse serves the public price check endpoint (Redis-cached).
type PriceCheckResponse struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
	Category  string          `json:"category"`
}
