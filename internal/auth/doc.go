// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package auth manages the identity half of a request: who is logged in.

A Manager keeps server-side sessions in a SessionStore (in memory, or in
BadgerDB when sessions should survive a restart) and hands the browser only
an opaque session id inside a cookie that gorilla/securecookie signs and
encrypts. On each request Authenticate resolves the id, reloads the user row
through a UserLoader and stores it in the request context:

	r.Use(manager.Authenticate)
	r.With(manager.RequireLogin).Get("/users/change-password", h)

RequireLogin is deliberately separate from the permission gate in package
authz; anonymous requests are redirected to the login form with a next
parameter.

The same Manager also carries one-shot flash messages across redirects and
protects state-changing requests against CSRF with a signed per-browser seed
cookie:

	<input type="hidden" name="csrf_token" value="{{ .CSRFToken }}">

LoginLimiter bounds login POSTs per client IP using go-chi/httprate.
*/
package auth
