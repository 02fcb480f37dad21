package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// runTx wraps fn in a database transaction. When db is nil (unit tests run
// services against in-memory repository stubs) fn is invoked directly with a
// nil tx and the stubs ignore it.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// maxConflictRetries bounds how many times a writer re-runs its transaction
// after the database aborts it with a serialization failure or deadlock.
const maxConflictRetries = 3

// isRetryableConflict reports whether err is a transient transaction abort
// (SQLSTATE 40001 serialization_failure or 40P01 deadlock_detected).
func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
