// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package accounts implements user management: listing, creating, editing and
deleting users, changing passwords and checking login credentials.

Workflows take the request's *database.Conn explicitly. Input problems the
user can fix are returned as validation.FormErrors (which implements error),
so handlers can re-render the form:

	id, err := svc.Create(ctx, conn, form)
	var fe validation.FormErrors
	if errors.As(err, &fe) {
	    // show fe next to the fields
	}

Passwords are hashed by the store (SHA2 at the SQL layer) and never leave
this package in any other form.
*/
package accounts
