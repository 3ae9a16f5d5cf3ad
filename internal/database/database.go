// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/tomtom215/bookshelf/internal/config"
)

// Dialect identifies the SQL engine behind a DB.
type Dialect string

const (
	MySQL  Dialect = config.DialectMySQL
	SQLite Dialect = config.DialectSQLite
)

// DB wraps the connection pool and its dialect.
type DB struct {
	pool    *sql.DB
	dialect Dialect
}

// Open connects to the configured store and verifies the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		closeWithLog(pool, "database")
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Dialect, err)
	}

	return &DB{pool: pool, dialect: Dialect(cfg.Dialect)}, nil
}

func dataSource(cfg *config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Dialect {
	case config.DialectMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Host
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return "mysql", mc.FormatDSN(), nil
	case config.DialectSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return "", "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		return sqliteDriverName, sqliteDSN(cfg.SQLitePath), nil
	default:
		return "", "", fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}
}

// Dialect reports the SQL engine in use.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping verifies the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.PingContext(ctx)
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.pool.Close()
}

// Queries runs statements on the pool. HTTP handlers use Acquire instead so
// each request stays on one connection.
func (db *DB) Queries() *Queries {
	return &Queries{q: db.pool, dialect: db.dialect}
}

// Acquire pins one pooled connection for the caller. Close returns it.
func (db *DB) Acquire(ctx context.Context) (*Conn, error) {
	c, err := db.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return &Conn{conn: c, dialect: db.dialect}, nil
}
