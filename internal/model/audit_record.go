package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord ties every mutating operation to the actor who performed it
// and the entities it touched. Written in the SAME transaction as the
// primary mutation — an audit row without its mutation (or vice versa)
// cannot exist.
type AuditRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	// Operation: "sale.create" | "sale.void" | "return.create" |
	// "stock.adjust" | "product.create" | "shift.open" | "shift.close"
	Operation  string `gorm:"type:varchar(40);not null;index"`
	EntityType string `gorm:"type:varchar(40);not null"`
	// EntityIDs holds the affected ids, comma separated (sale id plus its
	// movement ids, for example).
	EntityIDs string `gorm:"not null"`
	CreatedAt time.Time
}
