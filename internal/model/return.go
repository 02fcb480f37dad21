package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return types. Warranty and exchange reverse stock without moving cash;
// the distinction is carried explicitly on the type, never inferred from
// the payment method.
const (
	ReturnRefund     = "return"
	ReturnWarranty   = "warranty"
	ReturnExchange   = "exchange"
	ReturnCreditNote = "credit_note"
)

// Return reverses part of a completed Sale. The original sale record is
// untouched; stock and cash effects are appended as compensating entries.
type Return struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index"`
	SaleID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ShiftID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       string    `gorm:"type:varchar(20);not null"`
	Reason     string    `gorm:"not null"`
	// RefundTotal is zero for warranty/exchange types.
	RefundTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ActorID     uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt   time.Time

	Lines []ReturnLine `gorm:"foreignKey:ReturnID"`
}

// ReturnLine records quantity returned against one original sale line at
// the line's snapshotted unit price.
type ReturnLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReturnID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
