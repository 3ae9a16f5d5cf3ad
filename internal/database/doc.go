// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package database provides relational storage for Bookshelf on MySQL or SQLite.

# Connections

Open returns a DB wrapping a *sql.DB pool. HTTP requests call Acquire to pin
one pooled connection for the whole request and Close it at teardown:

	conn, err := db.Acquire(ctx)
	if err != nil {
	    return err
	}
	defer conn.Close()

	page, err := conn.Queries().ListBooks(ctx, 10, 0)

Conn.WithTx runs a function inside a transaction on that connection and rolls
back when the function returns an error. Conn.WithoutForeignKeys suspends
foreign key enforcement on the same connection for a multi-statement delete
and restores it on every exit path.

# Queries

All SQL is built with squirrel and every value is bound as a parameter.
Passwords are hashed by the store itself with SHA2(value, 256). MySQL
provides SHA2 natively; for SQLite the function is registered on each new
connection, so plaintext never gets hashed in Go.

# Errors

ErrNotFound is returned when a looked-up row does not exist. ErrDuplicate is
returned for unique constraint violations on either engine.

# Migrations

Migrate applies versioned schema migrations recorded in schema_migrations.
Each migration carries DDL for both dialects.
*/
package database
