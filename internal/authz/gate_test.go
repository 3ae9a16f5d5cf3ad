// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package authz

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
)

type recordingFlasher struct {
	category string
	message  string
}

func (f *recordingFlasher) Flash(_ http.ResponseWriter, _ *http.Request, category, message string) {
	f.category = category
	f.message = message
}

func fixedActor(u *models.User) ActorFunc {
	return func(*http.Request) *models.User { return u }
}

func usersByID(users ...*models.User) SubjectLoader {
	return func(_ *http.Request, id int64) (*models.User, error) {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, database.ErrNotFound
	}
}

func serveGate(t *testing.T, gate *Gate, resource Resource, action Action, path string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	called := false
	r := chi.NewRouter()
	r.With(gate.Authorize(resource, action)).Get("/users/{user_id}/edit", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	r.With(gate.Authorize(resource, action)).Get("/books/new", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, called
}

func TestGate_ModeratorCannotEditAdmin(t *testing.T) {
	t.Parallel()

	flash := &recordingFlasher{}
	gate := NewGate(newTestPolicy(t), fixedActor(moderator), usersByID(admin, regular), flash)

	rec, called := serveGate(t, gate, ResourceUser, ActionUpdate, "/users/1/edit")
	if called {
		t.Fatal("handler invoked for denied request")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/users" {
		t.Errorf("Location = %q, want /users", loc)
	}
	if flash.category != "warning" || flash.message != DeniedMessage {
		t.Errorf("flash = %q/%q", flash.category, flash.message)
	}
}

func TestGate_ModeratorEditsRegular(t *testing.T) {
	t.Parallel()

	gate := NewGate(newTestPolicy(t), fixedActor(moderator), usersByID(admin, regular), &recordingFlasher{})

	rec, called := serveGate(t, gate, ResourceUser, ActionUpdate, "/users/3/edit")
	if !called || rec.Code != http.StatusOK {
		t.Errorf("called = %v, status = %d", called, rec.Code)
	}
}

func TestGate_MissingSubjectDeniesUpdate(t *testing.T) {
	t.Parallel()

	gate := NewGate(newTestPolicy(t), fixedActor(admin), usersByID(admin), &recordingFlasher{})

	rec, called := serveGate(t, gate, ResourceUser, ActionUpdate, "/users/99/edit")
	if called {
		t.Error("handler invoked without subject")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestGate_AnonymousPassesThrough(t *testing.T) {
	t.Parallel()

	gate := NewGate(newTestPolicy(t), fixedActor(nil), usersByID(), &recordingFlasher{})

	_, called := serveGate(t, gate, ResourceBook, ActionCreate, "/books/new")
	if !called {
		t.Error("anonymous request was blocked by the gate")
	}
}

func TestGate_BookDenialRedirectsHome(t *testing.T) {
	t.Parallel()

	gate := NewGate(newTestPolicy(t), fixedActor(regular), nil, &recordingFlasher{})

	rec, called := serveGate(t, gate, ResourceBook, ActionCreate, "/books/new")
	if called {
		t.Error("handler invoked")
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestGate_SubjectLoadError(t *testing.T) {
	t.Parallel()

	failing := func(*http.Request, int64) (*models.User, error) { return nil, errors.New("connection reset") }
	gate := NewGate(newTestPolicy(t), fixedActor(admin), failing, &recordingFlasher{})

	rec, called := serveGate(t, gate, ResourceUser, ActionUpdate, "/users/3/edit")
	if called {
		t.Error("handler invoked")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGate_AuthorizePanicsOnUnknownAction(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("Authorize did not panic")
		}
	}()
	NewGate(newTestPolicy(t), fixedActor(nil), nil, &recordingFlasher{}).Authorize(ResourceBook, Action("approve"))
}
