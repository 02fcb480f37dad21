package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale status values.
const (
	SaleCompleted = "completed"
	SaleVoided    = "voided"
)

// Payment methods accepted at the register.
const (
	PayCash     = "cash"
	PayDebit    = "debit"
	PayCredit   = "credit"
	PayTransfer = "transfer"
)

// Sale is immutable once completed: voiding flips the status and appends
// compensating ledger entries, it never rewrites lines or totals.
type Sale struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID   uuid.UUID `gorm:"type:uuid;not null;index"`
	TicketNumber int       `gorm:"uniqueIndex;not null"`
	ShiftID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CashierID    uuid.UUID `gorm:"type:uuid;not null;index"`
	// CustomerRef is an optional free-form customer identifier (doc number,
	// loyalty id). The ledger does not own customer records.
	CustomerRef   *string
	CustomerEmail *string
	LinesTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ChargesTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'completed'"`
	CreatedAt     time.Time

	Lines   []SaleLine   `gorm:"foreignKey:SaleID"`
	Charges []SaleCharge `gorm:"foreignKey:SaleID"`
	Cashier *User        `gorm:"foreignKey:CashierID"`
}

// SaleLine snapshots UnitPrice at sale time — later catalog price changes
// must not alter historical sales, refunds, or commission math.
type SaleLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// SaleCharge is an additional labelled amount on top of the line items
// (delivery fee, bag charge, rounding).
type SaleCharge struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Label  string          `gorm:"not null"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
