// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"fmt"
	"net"
	"time"
)

// Config holds all application configuration loaded by LoadWithKoanf.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// Supported database dialects.
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// DatabaseConfig selects the relational store.
//
// MySQL is the production store. SQLite serves local runs and tests.
type DatabaseConfig struct {
	Dialect      string `koanf:"dialect"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Host         string `koanf:"host"`
	Name         string `koanf:"name"`
	SQLitePath   string `koanf:"sqlite_path"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// Supported session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreBadger = "badger"
)

// SecurityConfig holds secrets, role identifiers and session settings.
type SecurityConfig struct {
	// SecretKey signs and encrypts session and flash cookies.
	SecretKey string `koanf:"secret_key"`

	// AdminRoleID and ModeratorRoleID map Roles rows to privileged kinds.
	// Every other role id is a regular user.
	AdminRoleID     int64 `koanf:"admin_role_id"`
	ModeratorRoleID int64 `koanf:"moderator_role_id"`

	SessionStore     string        `koanf:"session_store"`
	SessionStorePath string        `koanf:"session_store_path"`
	SessionTimeout   time.Duration `koanf:"session_timeout"`
	RememberTimeout  time.Duration `koanf:"remember_timeout"`
	CookieSecure     bool          `koanf:"cookie_secure"`

	// PolicyPath optionally replaces the embedded authorization policy CSV.
	PolicyPath string `koanf:"policy_path"`

	// LoginRateLimit is the number of login attempts allowed per IP per LoginRateWindow.
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// Supported cover storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StorageConfig selects where uploaded cover images live.
type StorageConfig struct {
	Backend           string `koanf:"backend"`
	ImageDir          string `koanf:"image_dir"`
	S3Bucket          string `koanf:"s3_bucket"`
	S3Region          string `koanf:"s3_region"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3PublicURL       string `koanf:"s3_public_url"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
