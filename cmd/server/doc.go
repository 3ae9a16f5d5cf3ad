// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package main is the entry point for the Bookshelf server.

Bookshelf is a server-rendered book catalog. Visitors browse paginated books
and read reviews; signed-in users write one review per book; moderators edit
books and regular users; administrators manage everything.

# Application Architecture

	RootSupervisor ("bookshelf")
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Startup order:

 1. Configuration: Koanf v2 from defaults, config.yaml, .env and environment variables
 2. Logging: zerolog, routed into slog for the supervisor tree
 3. Database: MySQL or SQLite, migrated on boot
 4. Sessions: memory or BadgerDB store, expired sessions purged
 5. Authorization: casbin policy with configured administrator and moderator role IDs
 6. Cover storage: local directory or S3 bucket
 7. HTTP: chi router under a suture supervisor

# Commands

	bookshelf serve                      # default when no command is given
	bookshelf migrate                    # apply schema migrations and exit
	bookshelf useradd --login admin1 --first-name Ada --last-name Lovelace --role 1

useradd prompts for the password when --password is omitted and stdin is a
terminal.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server, which drains in-flight requests within server.shutdown_timeout.
*/
package main
