// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package config provides centralized configuration management for Bookshelf.

# Configuration Sources

Configuration is layered, later sources overriding earlier ones:
  - Built-in defaults (defaultConfig)
  - Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/bookshelf/config.yaml)
  - Environment variables, including those loaded from a local .env file

# Environment Variables

Database:
  - DB_DIALECT: mysql or sqlite (default: sqlite)
  - MYSQL_USER, MYSQL_PASSWORD, MYSQL_HOST, MYSQL_DATABASE
  - SQLITE_PATH: database file (default: bookshelf.db)

Security:
  - SECRET_KEY: required, signs and encrypts cookies
  - ADMIN_ROLE_ID (default: 1), MODERATOR_ROLE_ID (default: 2)
  - SESSION_STORE: memory or badger (default: memory)
  - SESSION_STORE_PATH: badger directory
  - COOKIE_SECURE: mark cookies Secure (default: false)

Storage:
  - STORAGE_BACKEND: local or s3 (default: local)
  - IMAGE_DIR: cover directory for the local backend (default: static/images)
  - S3_BUCKET, S3_REGION, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)

# Password Policy

PasswordPolicy enforces the account password rules used when users are
created and when passwords are changed. See DefaultPasswordPolicy.

# Key Derivation

DeriveCookieKeys derives independent HMAC and AES keys from SECRET_KEY with
HKDF-SHA256, so a single secret can sign and encrypt session and flash cookies.
*/
package config
