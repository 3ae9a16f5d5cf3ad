// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
)

type scopeKey struct{}

// Scope is the per-request state handed to the workflows: who is acting
// and the one store connection the request holds.
type Scope struct {
	Actor *models.User
	Conn  *database.Conn
}

// requestScope acquires one store connection for the request and releases
// it when the handler chain returns, whatever the outcome.
func requestScope(db *database.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := db.Acquire(r.Context())
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to acquire database connection")
				http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				return
			}
			defer func() {
				if err := conn.Close(); err != nil {
					logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to release database connection")
				}
			}()

			ctx := context.WithValue(r.Context(), scopeKey{}, conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// scopeConn returns the connection acquired by requestScope.
func scopeConn(r *http.Request) *database.Conn {
	conn, _ := r.Context().Value(scopeKey{}).(*database.Conn)
	return conn
}

// scope returns the request scope. Actor is nil for anonymous requests.
func scope(r *http.Request) Scope {
	return Scope{Actor: auth.CurrentUser(r), Conn: scopeConn(r)}
}

// loadUser rehydrates a user through the request's connection. It serves
// both the session loader and the authorization subject loader.
func loadUser(r *http.Request, id int64) (*models.User, error) {
	u, err := scopeConn(r).Queries().GetUser(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
