// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

//go:build integration

package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/testinfra"
)

func setupMySQL(t *testing.T) *database.DB {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testinfra.NewMySQLContainer(ctx)
	if err != nil {
		t.Fatalf("start mysql: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), container) })

	db, err := database.Open(ctx, &container.Config)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestMySQL_Workflows(t *testing.T) {
	db := setupMySQL(t)
	ctx := context.Background()
	q := db.Queries()

	t.Run("migrations are idempotent", func(t *testing.T) {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("second Migrate() error = %v", err)
		}
		roles, err := q.ListRoles(ctx)
		if err != nil || len(roles) != 3 {
			t.Fatalf("ListRoles() = %d roles, %v; want 3", len(roles), err)
		}
	})

	var userID int64
	t.Run("sha2 credentials", func(t *testing.T) {
		id, err := q.InsertUser(ctx, models.User{Login: "mysqluser", FirstName: "My", LastName: "Sql", RoleID: 3}, "Valid123Pass")
		if err != nil {
			t.Fatalf("InsertUser() error = %v", err)
		}
		userID = id

		u, err := q.FindUserByCredentials(ctx, "mysqluser", "Valid123Pass")
		if err != nil || u.ID != id {
			t.Fatalf("FindUserByCredentials() = %+v, %v", u, err)
		}
		if _, err := q.FindUserByCredentials(ctx, "mysqluser", "nope"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("wrong password error = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate login", func(t *testing.T) {
		_, err := q.InsertUser(ctx, models.User{Login: "mysqluser", FirstName: "A", LastName: "B", RoleID: 3}, "Valid123Pass")
		if !errors.Is(err, database.ErrDuplicate) {
			t.Errorf("InsertUser(duplicate) error = %v, want ErrDuplicate", err)
		}
	})

	t.Run("foreign key suspension", func(t *testing.T) {
		conn, err := db.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		defer conn.Close()

		bookID, err := conn.Queries().InsertBook(ctx, models.Book{
			Title: "FK", ShortDescription: "d", Year: 2000, Publisher: "p", Author: "a", Pages: 1,
		})
		if err != nil {
			t.Fatalf("InsertBook() error = %v", err)
		}
		if _, err := conn.Queries().InsertReview(ctx, models.Review{BookID: bookID, UserID: userID, Rating: 5, ReviewText: "x"}); err != nil {
			t.Fatalf("InsertReview() error = %v", err)
		}

		sentinel := errors.New("abort")
		err = conn.WithoutForeignKeys(ctx, func() error {
			enabled, err := conn.ForeignKeysEnabled(ctx)
			if err != nil {
				return err
			}
			if enabled {
				t.Error("foreign keys enabled inside WithoutForeignKeys")
			}
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("WithoutForeignKeys() error = %v, want sentinel", err)
		}

		enabled, err := conn.ForeignKeysEnabled(ctx)
		if err != nil || !enabled {
			t.Errorf("foreign keys not restored after error: %v, %v", enabled, err)
		}

		// A book with reviews cannot be deleted while checks are on.
		if err := conn.Queries().DeleteBook(ctx, bookID); err == nil {
			t.Error("DeleteBook() with dependent reviews should fail with checks on")
		}
	})
}
