// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"errors"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/accounts"
	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/catalog"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/storage"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config   *config.Config
	DB       *database.DB
	Sessions auth.SessionStore
	Policy   *authz.Policy
	Covers   storage.CoverStore
}

// Server owns the router and the workflow services behind it.
type Server struct {
	cfg      *config.Config
	db       *database.DB
	sessions *auth.Manager
	policy   *authz.Policy
	gate     *authz.Gate
	covers   storage.CoverStore
	catalog  *catalog.Service
	accounts *accounts.Service
	views    *views
}

// NewServer wires the session manager, authorization gate, workflow
// services and templates.
func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.DB == nil || deps.Sessions == nil || deps.Policy == nil || deps.Covers == nil {
		return nil, errors.New("api: incomplete dependencies")
	}
	sec := deps.Config.Security

	keys, err := config.DeriveCookieKeys(sec.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("derive cookie keys: %w", err)
	}

	sessions, err := auth.NewManager(deps.Sessions, loadUser, auth.Config{
		Keys:         keys,
		SessionTTL:   sec.SessionTimeout,
		RememberTTL:  sec.RememberTimeout,
		CookieSecure: sec.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	tmpl, err := loadViews()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		cfg:      deps.Config,
		db:       deps.DB,
		sessions: sessions,
		policy:   deps.Policy,
		gate:     authz.NewGate(deps.Policy, auth.CurrentUser, loadUser, sessions),
		covers:   deps.Covers,
		catalog:  catalog.NewService(deps.Covers),
		accounts: accounts.NewService(config.DefaultPasswordPolicy()),
		views:    tmpl,
	}, nil
}
