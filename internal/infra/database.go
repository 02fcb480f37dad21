package infra

import (
	"fmt"

	"posledger/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (sequences, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the schema. Also used by integration tests
// against throwaway containers.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.User{},
		&model.CashShift{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleLine{},
		&model.SaleCharge{},
		&model.Return{},
		&model.ReturnLine{},
		&model.InventoryMovement{},
		&model.AuditRecord{},
		&model.Receipt{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Atomic ticket numbering shared by all registers.
		{"create ticket number sequence",
			`CREATE SEQUENCE IF NOT EXISTS sales_ticket_number_seq START 1`},

		// One open shift per register, enforced even under racing opens.
		{"one open shift per register", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_one_open_shift_per_register') THEN
    CREATE UNIQUE INDEX idx_one_open_shift_per_register
        ON cash_shifts (register_id)
        WHERE status = 'open';
  END IF;
END $$`},

		// Partial index backing the receipt retry cron query.
		{"pending receipt retry index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_receipts_pending_retry') THEN
    CREATE INDEX idx_receipts_pending_retry
        ON receipts (next_retry_at)
        WHERE status = 'pending' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},

		// The movement ledger is read newest-first per product on every write.
		{"movement ledger lookup index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_movements_product_created') THEN
    CREATE INDEX idx_movements_product_created
        ON inventory_movements (product_id, created_at DESC);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
