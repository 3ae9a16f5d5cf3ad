// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
)

// Cookie names.
const (
	SessionCookieName = "bookshelf_session"
	FlashCookieName   = "bookshelf_flash"
	CSRFCookieName    = "bookshelf_csrf"
)

// LoginPath is where RequireLogin sends anonymous visitors.
const LoginPath = "/auth/login"

// LoginRequiredMessage is flashed by RequireLogin.
const LoginRequiredMessage = "Please log in to access this page."

type contextKey string

const (
	userContextKey    contextKey = "auth_user"
	sessionContextKey contextKey = "auth_session"
	csrfContextKey    contextKey = "auth_csrf_seed"
	flashContextKey   contextKey = "auth_flashes"
)

// UserLoader rehydrates a user from the id stored in a session.
// It returns database.ErrNotFound when the user no longer exists.
type UserLoader func(r *http.Request, id int64) (*models.User, error)

// Config holds configuration for NewManager.
type Config struct {
	Keys         config.CookieKeys
	SessionTTL   time.Duration
	RememberTTL  time.Duration
	CookieSecure bool
}

// Manager issues and resolves sessions, flashes and CSRF tokens.
type Manager struct {
	store   SessionStore
	cookies *securecookie.SecureCookie
	loader  UserLoader
	cfg     Config
}

// NewManager creates a Manager.
func NewManager(store SessionStore, loader UserLoader, cfg Config) (*Manager, error) {
	if len(cfg.Keys.HashKey) == 0 {
		return nil, errors.New("auth: cookie hash key is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RememberTTL < cfg.SessionTTL {
		cfg.RememberTTL = cfg.SessionTTL
	}

	cookies := securecookie.New(cfg.Keys.HashKey, cfg.Keys.BlockKey)
	cookies.MaxAge(int(cfg.RememberTTL.Seconds()))
	cookies.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{store: store, cookies: cookies, loader: loader, cfg: cfg}, nil
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

// ContextWithUser stores an authenticated user in ctx.
func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, u)
	return logging.ContextWithActor(ctx, u.Login)
}

// CurrentUser is UserFromContext for a request.
func CurrentUser(r *http.Request) *models.User {
	return UserFromContext(r.Context())
}

// Authenticate resolves the session cookie into a user. Requests without a
// valid session continue anonymously.
func (m *Manager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = withPendingFlashes(r)
		sessionID := m.sessionID(r)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.store.Get(r.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Session lookup error")
			}
			m.clearCookie(w, SessionCookieName)
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.loader(r, session.UserID)
		if errors.Is(err, database.ErrNotFound) {
			m.deleteSession(r.Context(), session.ID)
			m.clearCookie(w, SessionCookieName)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int64("user_id", session.UserID).Msg("Failed to load session user")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = context.WithValue(ctx, sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects anonymous requests to the login form.
func (m *Manager) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) != nil {
			next.ServeHTTP(w, r)
			return
		}

		m.Flash(w, r, "warning", LoginRequiredMessage)
		target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// Login starts a new session for userID. Any session presented with the
// request is destroyed first so a pre-login id never becomes authenticated.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID int64, remember bool) error {
	if old := m.sessionID(r); old != "" {
		m.deleteSession(r.Context(), old)
	}

	ttl := m.cfg.SessionTTL
	if remember {
		ttl = m.cfg.RememberTTL
	}

	session := NewSession(userID, ttl, remember)
	if err := m.store.Create(r.Context(), session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	encoded, err := m.cookies.Encode(SessionCookieName, session.ID)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}

	cookie := m.newCookie(SessionCookieName, encoded)
	if remember {
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = session.ExpiresAt
	}
	http.SetCookie(w, cookie)
	return nil
}

// Logout destroys the current session and clears its cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if id := m.sessionID(r); id != "" {
		m.deleteSession(r.Context(), id)
	}
	m.clearCookie(w, SessionCookieName)
}

// SafeNext returns next when it is a same-site path, otherwise "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}

func (m *Manager) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	var id string
	if err := m.cookies.Decode(SessionCookieName, cookie.Value, &id); err != nil {
		return ""
	}
	return id
}

func (m *Manager) deleteSession(ctx context.Context, id string) {
	if err := m.store.Delete(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to delete session")
	}
}

func (m *Manager) newCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) clearCookie(w http.ResponseWriter, name string) {
	cookie := m.newCookie(name, "")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}
