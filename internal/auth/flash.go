// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"context"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// maxFlashes bounds the flash cookie size.
const maxFlashes = 5

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// pendingFlashes holds the flashes queued during one request, so several
// Flash calls accumulate instead of each rewriting the incoming cookie.
type pendingFlashes struct {
	loaded  bool
	flashes []Flash
}

func withPendingFlashes(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(flashContextKey).(*pendingFlashes); ok {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), flashContextKey, &pendingFlashes{}))
}

// queued returns the request's flashes: those pending from earlier calls,
// else the ones in the incoming cookie. Outside Authenticate nothing is
// shared between calls.
func (m *Manager) queued(r *http.Request) *pendingFlashes {
	pending, ok := r.Context().Value(flashContextKey).(*pendingFlashes)
	if !ok {
		return &pendingFlashes{loaded: true, flashes: m.readFlashes(r)}
	}
	if !pending.loaded {
		pending.flashes, pending.loaded = m.readFlashes(r), true
	}
	return pending
}

// Flash queues a notice. Category is one of success, warning or danger.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, category, message string) {
	pending := m.queued(r)
	pending.flashes = append(pending.flashes, Flash{Category: category, Message: message})
	if len(pending.flashes) > maxFlashes {
		pending.flashes = pending.flashes[len(pending.flashes)-maxFlashes:]
	}

	encoded, err := m.cookies.Encode(FlashCookieName, pending.flashes)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode flash cookie")
		return
	}
	http.SetCookie(w, m.newCookie(FlashCookieName, encoded))
}

// PopFlashes returns the queued notices and clears them.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	pending := m.queued(r)
	flashes := pending.flashes
	pending.flashes = nil
	if len(flashes) > 0 {
		m.clearCookie(w, FlashCookieName)
	}
	return flashes
}

func (m *Manager) readFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	var flashes []Flash
	if err := m.cookies.Decode(FlashCookieName, cookie.Value, &flashes); err != nil {
		return nil
	}
	return flashes
}
