// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// Migration is a versioned schema change. Statements run in order; an entry
// for a dialect overrides the portable Common list.
type Migration struct {
	Version     int
	Name        string
	Description string
	Common      []string
	PerDialect  map[Dialect][]string
}

func (m Migration) statements(d Dialect) []string {
	if stmts, ok := m.PerDialect[d]; ok {
		return stmts
	}
	return m.Common
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// migrations are append-only.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "initial_schema",
		Description: "Roles, Users, Covers, Books, Genres, Book_genre and Reviews",
		PerDialect: map[Dialect][]string{
			MySQL: {
				`CREATE TABLE Roles (
					id INT AUTO_INCREMENT PRIMARY KEY,
					name VARCHAR(50) NOT NULL UNIQUE,
					description TEXT
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
				`CREATE TABLE Users (
					id INT AUTO_INCREMENT PRIMARY KEY,
					login VARCHAR(100) NOT NULL UNIQUE,
					password_hash CHAR(64) NOT NULL,
					last_name VARCHAR(100) NOT NULL,
					first_name VARCHAR(100) NOT NULL,
					middle_name VARCHAR(100),
					role_id INT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (role_id) REFERENCES Roles(id)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
				`CREATE TABLE Covers (
					id INT AUTO_INCREMENT PRIMARY KEY,
					file_name VARCHAR(255) NOT NULL,
					mime_type VARCHAR(100) NOT NULL,
					md5_hash CHAR(32) NOT NULL UNIQUE
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
				`CREATE TABLE Books (
					id INT AUTO_INCREMENT PRIMARY KEY,
					title VARCHAR(255) NOT NULL,
					short_description TEXT NOT NULL,
					year INT NOT NULL,
					publisher VARCHAR(255) NOT NULL,
					author VARCHAR(255) NOT NULL,
					pages INT NOT NULL,
					cover_id INT NULL,
					FOREIGN KEY (cover_id) REFERENCES Covers(id)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
				`CREATE TABLE Genres (
					id INT AUTO_INCREMENT PRIMARY KEY,
					name VARCHAR(100) NOT NULL UNIQUE
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
				`CREATE TABLE Book_genre (
					book_id INT NOT NULL,
					genre_id INT NOT NULL,
					PRIMARY KEY (book_id, genre_id),
					FOREIGN KEY (book_id) REFERENCES Books(id),
					FOREIGN KEY (genre_id) REFERENCES Genres(id)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
				`CREATE TABLE Reviews (
					id INT AUTO_INCREMENT PRIMARY KEY,
					book_id INT NOT NULL,
					user_id INT NOT NULL,
					rating INT NOT NULL,
					review_text TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE KEY uq_reviews_book_user (book_id, user_id),
					FOREIGN KEY (book_id) REFERENCES Books(id),
					FOREIGN KEY (user_id) REFERENCES Users(id) ON DELETE CASCADE
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			},
			SQLite: {
				`CREATE TABLE Roles (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE,
					description TEXT
				)`,
				`CREATE TABLE Users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					login TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					last_name TEXT NOT NULL,
					first_name TEXT NOT NULL,
					middle_name TEXT,
					role_id INTEGER NOT NULL REFERENCES Roles(id),
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE Covers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_name TEXT NOT NULL,
					mime_type TEXT NOT NULL,
					md5_hash TEXT NOT NULL UNIQUE
				)`,
				`CREATE TABLE Books (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					title TEXT NOT NULL,
					short_description TEXT NOT NULL,
					year INTEGER NOT NULL,
					publisher TEXT NOT NULL,
					author TEXT NOT NULL,
					pages INTEGER NOT NULL,
					cover_id INTEGER REFERENCES Covers(id)
				)`,
				`CREATE TABLE Genres (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE
				)`,
				`CREATE TABLE Book_genre (
					book_id INTEGER NOT NULL REFERENCES Books(id),
					genre_id INTEGER NOT NULL REFERENCES Genres(id),
					PRIMARY KEY (book_id, genre_id)
				)`,
				`CREATE TABLE Reviews (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					book_id INTEGER NOT NULL REFERENCES Books(id),
					user_id INTEGER NOT NULL REFERENCES Users(id) ON DELETE CASCADE,
					rating INTEGER NOT NULL,
					review_text TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (book_id, user_id)
				)`,
			},
		},
	},
	{
		Version:     2,
		Name:        "seed_roles",
		Description: "Administrator, moderator and user roles",
		Common: []string{
			`INSERT INTO Roles (id, name, description) VALUES
				(1, 'administrator', 'Full access, including user management'),
				(2, 'moderator', 'Can edit books and non-administrator accounts'),
				(3, 'user', 'Can read the catalog and write reviews')`,
		},
	},
	{
		Version:     3,
		Name:        "seed_genres",
		Description: "Starter genre list",
		Common: []string{
			`INSERT INTO Genres (name) VALUES
				('Fiction'), ('Science Fiction'), ('Fantasy'), ('Mystery'), ('Romance'),
				('History'), ('Biography'), ('Science'), ('Poetry'), ('Children')`,
		},
	},
}

// Migrate applies every migration not yet recorded in schema_migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		for _, stmt := range m.statements(db.dialect) {
			if _, err := db.pool.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
			}
		}

		query, args, err := sq.Insert("schema_migrations").
			Columns("version", "name", "description").
			Values(m.Version, m.Name, m.Description).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := db.pool.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		count++
	}

	if count > 0 {
		logging.Info().Int("applied", count).Str("dialect", string(db.dialect)).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.pool.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.pool.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
