// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package metrics holds the Prometheus collectors for the catalog server.

All collectors are registered with the default registry through promauto
and exposed at /metrics:

  - bookshelf_http_requests_total, bookshelf_http_request_duration_seconds
  - bookshelf_db_query_duration_seconds
  - bookshelf_cover_uploads_total (reused, stored or rejected covers)
  - bookshelf_login_attempts_total
  - bookshelf_authz_decisions_total

HTTP metrics are labeled with the chi route pattern rather than the raw path
so that book and user ids do not explode label cardinality.
*/
package metrics
