// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// CSRF field names.
const (
	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// csrfSeedLength is the random seed size in bytes.
const csrfSeedLength = 32

// CSRF protection errors
var (
	ErrCSRFTokenMissing = errors.New("CSRF token missing")
	ErrCSRFTokenInvalid = errors.New("CSRF token invalid")
)

// Protect rejects state-changing requests whose token does not match the
// browser's seed cookie. Safe methods get a seed issued if they lack one.
func (m *Manager) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seed := m.readCSRFSeed(r)

		if isSafeMethod(r.Method) {
			if seed == "" {
				var err error
				if seed, err = m.issueCSRFSeed(w); err != nil {
					logging.Ctx(r.Context()).Error().Err(err).Msg("CSRF: failed to generate seed")
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey, seed)))
			return
		}

		if err := m.validateCSRF(r, seed); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("CSRF validation failed")
			http.Error(w, "Forbidden: "+err.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey, seed)))
	})
}

// CSRFToken returns the token to embed in forms rendered for r.
func (m *Manager) CSRFToken(r *http.Request) string {
	seed, _ := r.Context().Value(csrfContextKey).(string)
	if seed == "" {
		return ""
	}
	return m.csrfToken(seed)
}

func (m *Manager) csrfToken(seed string) string {
	mac := hmac.New(sha256.New, m.cfg.Keys.HashKey)
	mac.Write([]byte(seed))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) validateCSRF(r *http.Request, seed string) error {
	if seed == "" {
		return ErrCSRFTokenMissing
	}

	token := r.Header.Get(CSRFHeader)
	if token == "" {
		token = r.FormValue(CSRFFormField)
	}
	if token == "" {
		return ErrCSRFTokenMissing
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(m.csrfToken(seed))) != 1 {
		return ErrCSRFTokenInvalid
	}
	return nil
}

func (m *Manager) readCSRFSeed(r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	var seed string
	if err := m.cookies.Decode(CSRFCookieName, cookie.Value, &seed); err != nil {
		return ""
	}
	return seed
}

func (m *Manager) issueCSRFSeed(w http.ResponseWriter) (string, error) {
	raw := make([]byte, csrfSeedLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	seed := base64.RawURLEncoding.EncodeToString(raw)

	encoded, err := m.cookies.Encode(CSRFCookieName, seed)
	if err != nil {
		return "", err
	}
	cookie := m.newCookie(CSRFCookieName, encoded)
	cookie.MaxAge = int(m.cfg.RememberTTL.Seconds())
	http.SetCookie(w, cookie)
	return seed, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
