// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"fmt"
	"strings"
)

// MinSecretKeyLength is the shortest SECRET_KEY accepted.
const MinSecretKeyLength = 16

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Dialect {
	case DialectMySQL:
		if c.Database.Name == "" {
			return fmt.Errorf("MYSQL_DATABASE is required when DB_DIALECT=mysql")
		}
		if c.Database.User == "" {
			return fmt.Errorf("MYSQL_USER is required when DB_DIALECT=mysql")
		}
	case DialectSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DIALECT=sqlite")
		}
	default:
		return fmt.Errorf("DB_DIALECT must be 'mysql' or 'sqlite', got %q", c.Database.Dialect)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if len(s.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretKeyLength)
	}
	if s.AdminRoleID == s.ModeratorRoleID {
		return fmt.Errorf("ADMIN_ROLE_ID and MODERATOR_ROLE_ID must differ (both %d)", s.AdminRoleID)
	}
	switch s.SessionStore {
	case SessionStoreMemory:
	case SessionStoreBadger:
		if s.SessionStorePath == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be 'memory' or 'badger', got %q", s.SessionStore)
	}
	if s.SessionTimeout <= 0 || s.RememberTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT and REMEMBER_TIMEOUT must be positive")
	}
	if s.LoginRateLimit < 1 || s.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.ImageDir == "" {
			return fmt.Errorf("IMAGE_DIR is required when STORAGE_BACKEND=local")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION are required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'local' or 's3', got %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
