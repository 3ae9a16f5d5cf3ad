// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package authz decides who may do what.

A Policy maps an actor (the logged-in user, or nil) to a role kind using the
configured administrator and moderator role ids, then evaluates the request
with a Casbin SyncedEnforcer. The model and policy are embedded:

	p, anonymous, *, read
	p, admin, book, create
	p, moderator, user:regular, update
	g, moderator, regular

Objects are "book", "user" when no target user is involved, and
"user:<kind>" when one is. A subject-scoped update without a subject never
matches, so it is denied.

Gate turns a Policy into chi middleware. It only blocks authenticated actors;
anonymous requests are left to the separate login guard in package auth.

Actions form a closed set. Can returns ErrUnknownAction for anything else and
Gate.Authorize panics at route construction.
*/
package authz
