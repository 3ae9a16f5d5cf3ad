// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultLimited = "rate_limited"

	CoverReused   = "reused"
	CoverStored   = "stored"
	CoverRejected = "rejected"
)

var (
	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_db_query_duration_seconds",
			Help:    "Duration of relational store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Catalog Metrics
	CoverUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cover_uploads_total",
			Help: "Cover uploads by dedup result",
		},
		[]string{"result"}, // "reused", "stored", "rejected"
	)

	// Security Metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_authz_decisions_total",
			Help: "Authorization decisions by resource, action and outcome",
		},
		[]string{"resource", "action", "decision"},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookshelf_info",
			Help: "Build information",
		},
		[]string{"version"},
	)
)

// RecordDBQuery records a store operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served request. route is the chi route pattern.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight requests
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordCoverUpload records the outcome of a cover upload.
func RecordCoverUpload(result string) {
	CoverUploads.WithLabelValues(result).Inc()
}

// RecordLoginAttempt records a login attempt.
func RecordLoginAttempt(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// RecordAuthzDecision records a permission check.
func RecordAuthzDecision(resource, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisions.WithLabelValues(resource, action, decision).Inc()
}

// SetBuildInfo publishes the running version.
func SetBuildInfo(version string) {
	AppInfo.WithLabelValues(version).Set(1)
}
