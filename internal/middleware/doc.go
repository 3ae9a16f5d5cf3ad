// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package middleware provides the cross-cutting HTTP middleware of the
// catalog server: request ids, Prometheus instrumentation and access logs.
// Every middleware has the chi signature func(http.Handler) http.Handler.
//
// Order matters. RequestID runs first so that AccessLog and every handler
// log line carry the id, and PrometheusMetrics reads the chi route pattern
// after routing has completed.
package middleware
