// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package authz

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
)

// DeniedMessage is flashed when an authenticated actor is refused.
const DeniedMessage = "You do not have sufficient rights to perform this action."

// SubjectParam is the route parameter naming a target user.
const SubjectParam = "user_id"

// ActorFunc returns the authenticated user of a request, or nil.
type ActorFunc func(r *http.Request) *models.User

// SubjectLoader loads a target user by id. database.ErrNotFound means absent.
type SubjectLoader func(r *http.Request, id int64) (*models.User, error)

// Flasher queues a one-shot notice for the next rendered page.
type Flasher interface {
	Flash(w http.ResponseWriter, r *http.Request, category, message string)
}

// Gate wraps handlers with permission checks.
type Gate struct {
	policy  *Policy
	actor   ActorFunc
	subject SubjectLoader
	flash   Flasher
}

// NewGate creates a Gate.
func NewGate(policy *Policy, actor ActorFunc, subject SubjectLoader, flash Flasher) *Gate {
	return &Gate{policy: policy, actor: actor, subject: subject, flash: flash}
}

// Authorize returns middleware checking action on resource. Unauthenticated
// requests pass through; pair it with a login guard where one is required.
// It panics on an action outside the closed set.
func (g *Gate) Authorize(resource Resource, action Action) func(http.Handler) http.Handler {
	if !action.Valid() {
		panic("authz: " + ErrUnknownAction.Error() + ": " + string(action))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := g.actor(r)
			if actor == nil {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := g.loadSubject(r)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to load authorization subject")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			allowed, err := g.policy.Can(actor, resource, action, subject)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if !allowed {
				logging.Ctx(r.Context()).Warn().
					Str("resource", string(resource)).
					Str("action", string(action)).
					Msg("Authorization denied")
				g.flash.Flash(w, r, "warning", DeniedMessage)
				http.Redirect(w, r, deniedRedirect(resource), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) loadSubject(r *http.Request) (*models.User, error) {
	if g.subject == nil {
		return nil, nil
	}
	raw := chi.URLParam(r, SubjectParam)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, nil
	}

	subject, err := g.subject(r, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return subject, err
}

func deniedRedirect(resource Resource) string {
	if resource == ResourceUser {
		return "/users"
	}
	return "/"
}
