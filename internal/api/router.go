// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/middleware"
	"github.com/tomtom215/bookshelf/internal/storage"
)

// maxRequestBytes bounds every request body, cover uploads included.
const maxRequestBytes = 10 << 20

// Router builds the HTTP handler.
//
// Guards compose explicitly per route: RequireLogin redirects anonymous
// users to the login form, and Gate.Authorize checks the action for
// authenticated ones.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())
	if local, ok := s.covers.(*storage.LocalStore); ok {
		r.Handle("/images/*", local.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.RequestSize(maxRequestBytes))
		r.Use(requestScope(s.db))
		r.Use(s.sessions.Authenticate)
		r.Use(s.sessions.Protect)

		login := s.sessions.RequireLogin
		can := s.gate.Authorize

		r.Get("/", s.index)
		r.Get("/page/{page}", s.index)

		r.Route("/books", func(r chi.Router) {
			r.With(login, can(authz.ResourceBook, authz.ActionCreate)).Get("/new", s.newBook)
			r.With(login, can(authz.ResourceBook, authz.ActionCreate)).Post("/new", s.createBook)
			r.Get("/{book_id}", s.viewBook)
			r.With(login, can(authz.ResourceBook, authz.ActionUpdate)).Get("/{book_id}/edit", s.editBook)
			r.With(login, can(authz.ResourceBook, authz.ActionUpdate)).Post("/{book_id}/edit", s.updateBook)
			r.With(login, can(authz.ResourceBook, authz.ActionDelete)).Post("/{book_id}/delete", s.deleteBook)
			r.With(login).Get("/{book_id}/review", s.reviewForm)
			r.With(login).Post("/{book_id}/review", s.createReview)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(can(authz.ResourceUser, authz.ActionRead)).Get("/", s.listUsers)
			r.With(login, can(authz.ResourceUser, authz.ActionCreate)).Get("/new", s.newUser)
			r.With(login, can(authz.ResourceUser, authz.ActionCreate)).Post("/new", s.createUser)
			r.With(login, can(authz.ResourceUser, authz.ActionUpdate)).Get("/{user_id}/edit", s.editUser)
			r.With(login, can(authz.ResourceUser, authz.ActionUpdate)).Post("/{user_id}/edit", s.updateUser)
			r.With(login, can(authz.ResourceUser, authz.ActionDelete)).Post("/{user_id}/delete", s.deleteUser)
			r.With(login).Get("/change-password", s.changePasswordForm)
			r.With(login).Post("/change-password", s.changePassword)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", s.loginForm)
			r.With(auth.LoginLimiter(s.loginRateLimit())).Post("/login", s.login)
			r.Get("/logout", s.logout)
		})
	})

	return r
}

func (s *Server) loginRateLimit() (int, time.Duration) {
	limit, window := s.cfg.Security.LoginRateLimit, s.cfg.Security.LoginRateWindow
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}

// healthz reports liveness and store reachability.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.db.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}
