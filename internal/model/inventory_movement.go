package model

import (
	"time"

	"github.com/google/uuid"
)

// Inventory movement types.
const (
	MovementInitial    = "initial"
	MovementSale       = "sale"
	MovementReturn     = "return"
	MovementAdjustment = "adjustment"
)

// InventoryMovement is one append-only entry in the stock ledger. Entries
// are NEVER updated or deleted; reversals append compensating entries.
// Invariant per product: NewStock = PreviousStock + Quantity, and
// PreviousStock equals the NewStock of the previous entry in commit order.
type InventoryMovement struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Seq is a bigserial carrying commit order: created_at alone can tie
	// between two entries committed within the same microsecond.
	Seq           int64     `gorm:"autoIncrement;uniqueIndex"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"type:varchar(20);not null"`
	Quantity      int       `gorm:"not null"` // signed delta: positive = into stock, negative = out
	PreviousStock int       `gorm:"not null"`
	NewStock      int       `gorm:"not null"`
	Reason        string    `gorm:"not null"`
	// ReferenceID links to the originating Sale or Return; nil for manual
	// adjustments and initial stock.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	ActorID     uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
