// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Security.AdminRoleID != 1 {
		t.Errorf("Security.AdminRoleID = %d, want 1", cfg.Security.AdminRoleID)
	}
	if cfg.Security.ModeratorRoleID != 2 {
		t.Errorf("Security.ModeratorRoleID = %d, want 2", cfg.Security.ModeratorRoleID)
	}
	if cfg.Storage.ImageDir != "static/images" {
		t.Errorf("Storage.ImageDir = %q, want static/images", cfg.Storage.ImageDir)
	}
	if cfg.Database.Dialect != DialectSQLite {
		t.Errorf("Database.Dialect = %q, want sqlite", cfg.Database.Dialect)
	}
	if cfg.Security.SessionStore != SessionStoreMemory {
		t.Errorf("Security.SessionStore = %q, want memory", cfg.Security.SessionStore)
	}
	if cfg.Security.RememberTimeout <= cfg.Security.SessionTimeout {
		t.Errorf("RememberTimeout %v should exceed SessionTimeout %v", cfg.Security.RememberTimeout, cfg.Security.SessionTimeout)
	}

	// Defaults are only missing the secret key.
	cfg.Security.SecretKey = "0123456789abcdef0123"
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults with a secret key should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"SECRET_KEY", "security.secret_key"},
		{"ADMIN_ROLE_ID", "security.admin_role_id"},
		{"MODERATOR_ROLE_ID", "security.moderator_role_id"},
		{"MYSQL_HOST", "database.host"},
		{"MYSQL_DATABASE", "database.name"},
		{"DB_DIALECT", "database.dialect"},
		{"IMAGE_DIR", "storage.image_dir"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SECRET_KEY", "env-secret-key-value")
	t.Setenv("MODERATOR_ROLE_ID", "7")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("SESSION_TIMEOUT", "2h")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Security.SecretKey != "env-secret-key-value" {
		t.Errorf("SecretKey = %q", cfg.Security.SecretKey)
	}
	if cfg.Security.ModeratorRoleID != 7 {
		t.Errorf("ModeratorRoleID = %d, want 7", cfg.Security.ModeratorRoleID)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Security.SessionTimeout != 2*time.Hour {
		t.Errorf("SessionTimeout = %v, want 2h", cfg.Security.SessionTimeout)
	}
}

func TestLoadWithKoanf_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
security:
  secret_key: yaml-secret-key-value
storage:
  image_dir: /srv/covers
database:
  dialect: mysql
  user: books
  name: catalog
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Storage.ImageDir != "/srv/covers" {
		t.Errorf("ImageDir = %q, want /srv/covers", cfg.Storage.ImageDir)
	}
	if cfg.Database.Dialect != DialectMySQL || cfg.Database.Name != "catalog" {
		t.Errorf("Database = %+v", cfg.Database)
	}
}

func TestLoadWithKoanf_MissingSecret(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SECRET_KEY", "")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "SECRET_KEY") {
		t.Fatalf("LoadWithKoanf() error = %v, want SECRET_KEY error", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.SecretKey = "0123456789abcdef0123"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"same role ids", func(c *Config) { c.Security.ModeratorRoleID = c.Security.AdminRoleID }, "must differ"},
		{"unknown dialect", func(c *Config) { c.Database.Dialect = "postgres" }, "DB_DIALECT"},
		{"mysql without name", func(c *Config) { c.Database.Dialect = DialectMySQL; c.Database.User = "u" }, "MYSQL_DATABASE"},
		{"unknown session store", func(c *Config) { c.Security.SessionStore = "redis" }, "SESSION_STORE"},
		{"badger without path", func(c *Config) {
			c.Security.SessionStore = SessionStoreBadger
			c.Security.SessionStorePath = ""
		}, "SESSION_STORE_PATH"},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = StorageS3 }, "S3_BUCKET"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"short secret", func(c *Config) { c.Security.SecretKey = "short" }, "SECRET_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
