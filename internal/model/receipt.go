package model

import (
	"time"

	"github.com/google/uuid"
)

// Receipt tracks the async PDF/email delivery for one sale.
// Status: "pending" | "delivered" | "failed"
// Delivery is best-effort and decoupled from the sale transaction: a lost
// receipt never rolls back a committed sale. The retry cron re-attempts
// pending receipts whose next_retry_at has passed.
// Receipt status values.
const (
	ReceiptPending   = "pending"
	ReceiptDelivered = "delivered"
	ReceiptFailed    = "failed"
)

type Receipt struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Status  string    `gorm:"type:varchar(20);not null;default:'pending'"`
	PDFPath *string   `gorm:"column:pdf_path"`
	Email   *string
	// Retry fields — used by retry_cron to re-attempt failed deliveries.
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
