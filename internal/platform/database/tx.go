package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Transactor runs fn inside a transaction. Repositories accept the *sql.Tx it hands out.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type SQLTransactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NoTx runs fn with a nil transaction. Used where repositories are not SQL backed.
type NoTx struct{}

func (NoTx) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}
