// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package supervisor runs the long-lived parts of the server under a
suture/v4 supervisor tree.

The tree is

	bookshelf (root)
	└── api-layer
	    └── http-server

A failing service is restarted with suture's backoff; supervisor events are
logged through sutureslog into the application's slog adapter. Cancelling the
context passed to Serve shuts the tree down and gives each service
ShutdownTimeout to return.

See the services subpackage for the HTTP server wrapper.
*/
package supervisor
