// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package testinfra provides test infrastructure shared by package tests.
//
// # SQLite
//
// NewTestDB opens a migrated SQLite database in t.TempDir() and NewTestConn
// acquires one connection from it, released when the test ends. Unit tests
// of the workflows run against it:
//
//	db := testinfra.NewTestDB(t)
//	conn := testinfra.NewTestConn(t, db)
//	admin := testinfra.SeedUser(t, db, "admin1", 1)
//
// # MySQL Container
//
// Files built with the integration tag start a real MySQL 8 server with
// testcontainers-go:
//
//	go test -tags integration ./internal/database/...
//
// Tests are skipped gracefully if Docker is unavailable. The first run
// downloads the image.
package testinfra
