// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package models

import (
	"strings"
	"time"
)

// User is an account. The password hash never leaves the store.
type User struct {
	ID         int64     `json:"id"`
	Login      string    `json:"login"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	MiddleName string    `json:"middle_name"`
	RoleID     int64     `json:"role_id"`
	RoleName   string    `json:"role_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// FullName joins last, first and middle names, skipping empty parts.
func (u User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.LastName, u.FirstName, u.MiddleName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Role is a Roles row.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
