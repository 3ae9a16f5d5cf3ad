// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package catalog implements the book and review workflows.

Every method takes the request's *database.Conn, so one request uses one
store connection for all of its statements. Permission checks happen before
these methods are called; the service only enforces data rules.

Covers are content addressed. An upload is hashed with MD5 and an existing
Covers row with the same hash is reused, so identical bytes are stored once:

	id, err := svc.Create(ctx, conn, form, &catalog.CoverUpload{FileName: h.Filename, Data: data})

Deleting a book removes its reviews and genre links and then the book. Its
cover row and file are removed only when no other book still uses them. The
delete runs with foreign key checks suspended on the connection and they are
restored on every exit path.
*/
package catalog
