package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashShift represents one cashier/register reconciliation period.
// Status: "open" | "closed". Closed is terminal — no reopen.
// At most one shift may be open per register; the repository enforces this
// with a lookup and the schema backs it with a partial unique index on
// (register_id) WHERE status = 'open'.
type CashShift struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	RegisterID     int             `gorm:"not null;index"`
	CashierID      uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedBalance is computed at close: opening + cash sales - cash refunds.
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedBalance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Variance = counted - expected. Always recorded, including zero and
	// negative — it is the audit signal for cash handling.
	Variance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status    string           `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedAt  time.Time
	ClosedAt  *time.Time

	Movements []CashMovement `gorm:"foreignKey:ShiftID"`
}

// Shift status values.
const (
	ShiftOpen   = "open"
	ShiftClosed = "closed"
)

// Cash movement types.
const (
	CashMovSale    = "sale"
	CashMovRefund  = "refund"
	CashMovVoid    = "void"
	CashMovIn      = "cash_in"
	CashMovOut     = "cash_out"
)

// CashMovement is an immutable event in a shift's money ledger. Movements
// are never modified or deleted — voids and refunds append inverse entries.
// Every sale and return committed while the shift is open writes exactly
// one movement, so shift aggregation is an exact filter, not a time window.
type CashMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"type:varchar(20);not null"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"not null"`
	ReferenceID *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time
}
