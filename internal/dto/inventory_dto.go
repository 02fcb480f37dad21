package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AdjustStockRequest is the only legal way to change stock outside a
// sale/return: it goes through the ledger with type=adjustment.
type AdjustStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Delta     int    `json:"delta"      validate:"required"`
	Reason    string `json:"reason"     validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	Product       string  `json:"product,omitempty"`
	Type          string  `json:"type"`
	Quantity      int     `json:"quantity"`
	PreviousStock int     `json:"previous_stock"`
	NewStock      int     `json:"new_stock"`
	Reason        string  `json:"reason"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	ActorID       string  `json:"actor_id"`
	CreatedAt     string  `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type StockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

type LowStockAlertResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
}
