// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// LoginLimiter limits login form submissions per client IP. Other methods
// are not counted.
func LoginLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	limiter := httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordLoginAttempt(metrics.ResultLimited)
			logging.Ctx(r.Context()).Warn().Str("remote_addr", r.RemoteAddr).Msg("Login rate limit exceeded")
			http.Error(w, "Too many login attempts. Try again later.", http.StatusTooManyRequests)
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
