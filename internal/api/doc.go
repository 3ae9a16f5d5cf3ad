// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package api is the server-rendered HTTP surface: a chi router, the page
handlers and the embedded html/template views.

# Middleware Chain

Every request passes through RequestID, RealIP, AccessLog, Recoverer and
PrometheusMetrics. Page routes then get, in order:

 1. RequestSize: bounds the body (cover uploads included)
 2. requestScope: acquires the one store connection the request uses and
    releases it on return
 3. Authenticate: resolves the session cookie into the actor
 4. Protect: CSRF check for state-changing methods

Individual routes add RequireLogin and Gate.Authorize as needed. The
handlers read the actor and connection from the request scope and pass both
explicitly to the catalog and accounts workflows.

# Errors

Fixable input problems re-render the form with inline errors and a 422.
Permission denials redirect with a warning flash. Unexpected failures are
logged, flashed as a generic message and redirected to a page where the user
can retry.
*/
package api
