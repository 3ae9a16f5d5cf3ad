// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/bookshelf/internal/api"
	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/storage"
	"github.com/tomtom215/bookshelf/internal/supervisor"
	"github.com/tomtom215/bookshelf/internal/supervisor/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			// After the first signal, a second one gets the default behaviour
			// and terminates a shutdown that hangs.
			context.AfterFunc(ctx, stop)
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("dialect", cfg.Database.Dialect).
		Str("session_store", cfg.Security.SessionStore).
		Str("storage", cfg.Storage.Backend).
		Msg("Starting Bookshelf")
	metrics.SetBuildInfo(version)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	factory, err := auth.NewSessionStoreFactory(cfg.Security.SessionStore, cfg.Security.SessionStorePath)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	defer func() {
		if err := factory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	sessions := factory.CreateStore()
	if n, err := sessions.CleanupExpired(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to purge expired sessions")
	} else if n > 0 {
		logging.Info().Int("count", n).Msg("Purged expired sessions")
	}
	if cfg.Security.SessionStore == "memory" {
		logging.Warn().Msg("Session store is 'memory': sessions are lost on restart (set SESSION_STORE=badger)")
	}

	policy, err := authz.NewPolicy(authz.Config{
		Roles: authz.Roles{
			AdminID:     cfg.Security.AdminRoleID,
			ModeratorID: cfg.Security.ModeratorRoleID,
		},
		PolicyPath: cfg.Security.PolicyPath,
	})
	if err != nil {
		return fmt.Errorf("load authorization policy: %w", err)
	}

	covers, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("create cover storage: %w", err)
	}

	app, err := api.NewServer(api.Deps{
		Config:   cfg,
		DB:       db,
		Sessions: sessions,
		Policy:   policy,
		Covers:   covers,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.Router(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Run(ctx); err != nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	logging.Info().Msg("Bookshelf stopped gracefully")
	return nil
}

// openDatabase connects and migrates. SQLite parent directories are
// created so a fresh checkout runs without setup.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	if cfg.Database.Dialect == config.DialectSQLite && cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logging.Info().Str("dialect", cfg.Database.Dialect).Msg("Database ready")
	return db, nil
}
