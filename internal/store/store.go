// Package store persists the rate configuration, drafts and saved quote
// snapshots in SQLite.
package store

import (
	"database/sql"
	"errors"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
)

// Store wraps the application database.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func storageErr(msg string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(apperrors.TypeNotFound, msg, err)
	}
	return apperrors.Wrap(apperrors.TypeStorage, msg, err)
}
