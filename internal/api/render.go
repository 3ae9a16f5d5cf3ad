// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// views holds one template set per page, each sharing the layout.
type views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"rating": func(avg float64) string {
		return fmt.Sprintf("%.1f", avg)
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	// review text is stored already sanitized against an allowlist
	"sanitized": func(s string) template.HTML {
		return template.HTML(s) //nolint:gosec // sanitized on write
	},
}

func loadViews() (*views, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	v := &views{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layoutTemplate {
			continue
		}
		t, err := template.New(path.Base(layoutTemplate)).Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[path.Base(name)] = t
	}
	return v, nil
}

// page is the data every template receives.
type page struct {
	Title   string
	Actor   *models.User
	Flashes []auth.Flash
	CSRF    string
	Errors  validation.FormErrors
	Data    any

	policy *authz.Policy
}

// Can reports whether the actor may perform action on resource; used for
// showing or hiding links. An unknown action fails the render.
func (p page) Can(resource, action string) (bool, error) {
	return p.policy.Check(p.Actor, authz.Resource(resource), authz.Action(action), nil)
}

// CanEditUser reports whether the actor may edit u.
func (p page) CanEditUser(u models.User) (bool, error) {
	return p.policy.Check(p.Actor, authz.ResourceUser, authz.ActionUpdate, &u)
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, errs validation.FormErrors) {
	t, ok := s.views.pages[name]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("template", name).Msg("Unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p := page{
		Title:   title,
		Actor:   auth.CurrentUser(r),
		Flashes: s.sessions.PopFlashes(w, r),
		CSRF:    s.sessions.CSRFToken(r),
		Errors:  errs,
		Data:    data,
		policy:  s.policy,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, path.Base(layoutTemplate), p); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write response")
	}
}

// notFound renders the not-found page.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "error.html", "Not found", "The requested page does not exist.", nil)
}

// fail logs an unexpected error, flashes a generic message and sends the
// user back to a page where they can retry.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, message, retry string) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	s.sessions.Flash(w, r, "danger", message)
	http.Redirect(w, r, retry, http.StatusSeeOther)
}

// redirect flashes a notice and redirects with 303.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, category, message, target string) {
	s.sessions.Flash(w, r, category, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
