// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the typed statements of this package, bound to a pool,
// a pinned connection or a transaction.
type Queries struct {
	q       querier
	dialect Dialect
}

// Conn is one pinned pool connection, owned by a single request.
type Conn struct {
	conn    *sql.Conn
	dialect Dialect
}

// Queries runs statements outside any transaction on this connection.
func (c *Conn) Queries() *Queries {
	return &Queries{q: c.conn, dialect: c.dialect}
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// WithTx commits when fn returns nil and rolls back otherwise, including on panic.
func (c *Conn) WithTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Queries{q: tx, dialect: c.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Ctx(ctx).Error().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithoutForeignKeys disables foreign key enforcement on this connection
// while fn runs and always restores it afterwards. SQLite ignores the
// pragma inside a transaction, so fn opens its own via WithTx.
func (c *Conn) WithoutForeignKeys(ctx context.Context, fn func() error) (err error) {
	disable, enable := foreignKeyStatements(c.dialect)

	if _, err := c.conn.ExecContext(ctx, disable); err != nil {
		return fmt.Errorf("failed to suspend foreign key checks: %w", err)
	}

	defer func() {
		// restore even if ctx was cancelled mid-delete
		if _, restoreErr := c.conn.ExecContext(context.WithoutCancel(ctx), enable); restoreErr != nil {
			logging.Ctx(ctx).Error().Err(restoreErr).Msg("Failed to restore foreign key checks")
			if err == nil {
				err = fmt.Errorf("failed to restore foreign key checks: %w", restoreErr)
			}
		}
	}()

	return fn()
}

// ForeignKeysEnabled reports the current enforcement state of this connection.
func (c *Conn) ForeignKeysEnabled(ctx context.Context) (bool, error) {
	query := "SELECT @@foreign_key_checks"
	if c.dialect == SQLite {
		query = "PRAGMA foreign_keys"
	}
	var enabled int
	if err := c.conn.QueryRowContext(ctx, query).Scan(&enabled); err != nil {
		return false, err
	}
	return enabled == 1, nil
}

func foreignKeyStatements(d Dialect) (disable, enable string) {
	if d == SQLite {
		return "PRAGMA foreign_keys = OFF", "PRAGMA foreign_keys = ON"
	}
	return "SET foreign_key_checks = 0", "SET foreign_key_checks = 1"
}
