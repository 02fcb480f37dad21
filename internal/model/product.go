package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the authoritative current-stock record for one sellable item.
// Stock is NEVER written directly by handlers or services other than the
// ledger path: every change goes through an InventoryMovement inside the
// same transaction (see service.LedgerService).
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Barcode     string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    string          `gorm:"not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	MinStock    int             `gorm:"not null;default:5"`
	// Frozen is set when a ledger consistency violation is detected for this
	// product. While frozen, all stock writes are rejected until an operator
	// investigates and clears the flag.
	Frozen    bool `gorm:"not null;default:false"`
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
