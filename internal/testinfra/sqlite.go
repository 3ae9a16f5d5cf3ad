// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package testinfra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
)

// TestPassword satisfies the default password policy.
const TestPassword = "Valid123Pass"

// NewTestDB opens and migrates a SQLite database removed after the test.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), &config.DatabaseConfig{
		Dialect:      config.DialectSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "bookshelf.db"),
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewTestConn acquires a connection released when the test ends.
func NewTestConn(t *testing.T, db *database.DB) *database.Conn {
	t.Helper()

	conn, err := db.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SeedUser inserts a user with TestPassword and returns it with its role name.
func SeedUser(t *testing.T, db *database.DB, login string, roleID int64) models.User {
	t.Helper()

	ctx := context.Background()
	id, err := db.Queries().InsertUser(ctx, models.User{
		Login:     login,
		FirstName: "Test",
		LastName:  "User",
		RoleID:    roleID,
	}, TestPassword)
	if err != nil {
		t.Fatalf("seed user %s: %v", login, err)
	}

	u, err := db.Queries().GetUser(ctx, id)
	if err != nil {
		t.Fatalf("reload user %s: %v", login, err)
	}
	return u
}

// SeedBook inserts a book and returns its id.
func SeedBook(t *testing.T, db *database.DB, title string, year int) int64 {
	t.Helper()

	id, err := db.Queries().InsertBook(context.Background(), models.Book{
		Title:            title,
		ShortDescription: "About " + title,
		Year:             year,
		Publisher:        "Test Press",
		Author:           "Test Author",
		Pages:            200,
	})
	if err != nil {
		t.Fatalf("seed book %s: %v", title, err)
	}
	return id
}
