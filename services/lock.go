package services

import (
	"errors"

	"qrmenu-api/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate makes the next query take exclusive row locks on what it
// selects. The locks belong to tx and are released by its commit or
// rollback; gorm's Transaction guarantees one of the two on every path.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockSkipLocked is lockForUpdate for candidate pools: rows another
// transaction already holds are skipped instead of waited on.
func lockSkipLocked(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
}

// notFoundOr maps a missing row to NotFound and anything else to Internal.
func notFoundOr(err error, resource, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}
	return apperr.Internal(op, err)
}

// classify keeps classified errors and marks the rest as internal.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(op, err)
}
