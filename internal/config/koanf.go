// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bookshelf/config.yaml",
	"/etc/bookshelf/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is loaded into the process environment before configuration is read.
const DotEnvFile = ".env"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Dialect:      DialectSQLite,
			Host:         "127.0.0.1:3306",
			SQLitePath:   "bookshelf.db",
			MaxOpenConns: 10,
		},
		Security: SecurityConfig{
			AdminRoleID:      1,
			ModeratorRoleID:  2,
			SessionStore:     SessionStoreMemory,
			SessionStorePath: "data/sessions",
			SessionTimeout:   24 * time.Hour,
			RememberTimeout:  30 * 24 * time.Hour,
			CookieSecure:     false,
			LoginRateLimit:   10,
			LoginRateWindow:  time.Minute,
		},
		Storage: StorageConfig{
			Backend:  StorageLocal,
			ImageDir: "static/images",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting, including values from .env
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"db_dialect":        "database.dialect",
	"mysql_user":        "database.user",
	"mysql_password":    "database.password",
	"mysql_host":        "database.host",
	"mysql_database":    "database.name",
	"sqlite_path":       "database.sqlite_path",
	"db_max_open_conns": "database.max_open_conns",

	"secret_key":         "security.secret_key",
	"admin_role_id":      "security.admin_role_id",
	"moderator_role_id":  "security.moderator_role_id",
	"session_store":      "security.session_store",
	"session_store_path": "security.session_store_path",
	"session_timeout":    "security.session_timeout",
	"remember_timeout":   "security.remember_timeout",
	"cookie_secure":      "security.cookie_secure",
	"login_rate_limit":   "security.login_rate_limit",
	"login_rate_window":  "security.login_rate_window",
	"authz_policy_path":  "security.policy_path",

	"storage_backend":      "storage.backend",
	"image_dir":            "storage.image_dir",
	"s3_bucket":            "storage.s3_bucket",
	"s3_region":            "storage.s3_region",
	"s3_access_key_id":     "storage.s3_access_key_id",
	"s3_secret_access_key": "storage.s3_secret_access_key",
	"s3_public_url":        "storage.s3_public_url",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unknown variables return "" and are ignored by the env provider.
//
// Examples:
//   - SECRET_KEY -> security.secret_key
//   - MYSQL_HOST -> database.host
//   - IMAGE_DIR -> storage.image_dir
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
