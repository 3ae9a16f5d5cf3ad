// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/bookshelf/internal/models"
)

// sha2Expr hashes a plaintext password inside the store.
func sha2Expr(password string) sq.Sqlizer {
	return sq.Expr("SHA2(?, 256)", password)
}

func userSelect() sq.SelectBuilder {
	return sq.Select("u.id", "u.login", "u.first_name", "u.last_name", "u.middle_name", "u.role_id",
		"COALESCE(r.name, '')", "u.created_at").
		From("Users u").
		LeftJoin("Roles r ON r.id = u.role_id")
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var middle sql.NullString
	if err := row.Scan(&u.ID, &u.Login, &u.FirstName, &u.LastName, &middle, &u.RoleID, &u.RoleName, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.MiddleName = middle.String
	return u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListUsers returns every user with the role name, ordered by id.
func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	defer observe("list_users")()

	query, args, err := userSelect().OrderBy("u.id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser loads a user or returns ErrNotFound.
func (q *Queries) GetUser(ctx context.Context, id int64) (models.User, error) {
	defer observe("get_user")()

	query, args, err := userSelect().Where(sq.Eq{"u.id": id}).ToSql()
	if err != nil {
		return models.User{}, err
	}
	u, err := scanUser(q.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

// FindUserByCredentials returns the user whose login and password match,
// comparing SHA2 hashes inside the store. No match is ErrNotFound.
func (q *Queries) FindUserByCredentials(ctx context.Context, login, password string) (models.User, error) {
	defer observe("find_user_by_credentials")()

	query, args, err := userSelect().
		Where(sq.Eq{"u.login": login}).
		Where(sq.Expr("u.password_hash = SHA2(?, 256)", password)).
		ToSql()
	if err != nil {
		return models.User{}, err
	}
	u, err := scanUser(q.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

// InsertUser creates a user. A taken login fails with ErrDuplicate.
func (q *Queries) InsertUser(ctx context.Context, u models.User, password string) (int64, error) {
	defer observe("insert_user")()

	query, args, err := sq.Insert("Users").
		Columns("login", "password_hash", "last_name", "first_name", "middle_name", "role_id").
		Values(u.Login, sha2Expr(password), u.LastName, u.FirstName, nullable(u.MiddleName), u.RoleID).
		ToSql()
	if err != nil {
		return 0, err
	}
	return q.insert(ctx, "user", query, args)
}

// UpdateUser updates the name fields, and role_id when withRole is set.
func (q *Queries) UpdateUser(ctx context.Context, u models.User, withRole bool) error {
	defer observe("update_user")()

	update := sq.Update("Users").
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("middle_name", nullable(u.MiddleName)).
		Where(sq.Eq{"id": u.ID})
	if withRole {
		update = update.Set("role_id", u.RoleID)
	}
	query, args, err := update.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return nil
}

// DeleteUser removes a user (and, by cascade, their reviews) or returns ErrNotFound.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	defer observe("delete_user")()
	return q.deleteWhere(ctx, "Users", sq.Eq{"id": id}, true)
}

// PasswordMatches compares a plaintext password with the stored hash in the store.
func (q *Queries) PasswordMatches(ctx context.Context, userID int64, password string) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("Users").
		Where(sq.Eq{"id": userID}).
		Where(sq.Expr("password_hash = SHA2(?, 256)", password)).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check password: %w", err)
	}
	return n == 1, nil
}

// UpdatePassword stores SHA2(password, 256) for the user.
func (q *Queries) UpdatePassword(ctx context.Context, userID int64, password string) error {
	defer observe("update_password")()

	query, args, err := sq.Update("Users").
		Set("password_hash", sha2Expr(password)).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := q.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ListRoles returns every role ordered by id.
func (q *Queries) ListRoles(ctx context.Context) ([]models.Role, error) {
	query, args, err := sq.Select("id", "name", "COALESCE(description, '')").From("Roles").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var roles []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// RoleExists reports whether a Roles row with the id exists.
func (q *Queries) RoleExists(ctx context.Context, id int64) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("Roles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return n > 0, nil
}
