// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/accounts"
	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/validation"
)

const (
	msgLoggedIn    = "Logged in successfully."
	msgLoggedOut   = "You have been logged out."
	msgLoginFailed = "An error occurred while logging in."
)

// loginView is the data of login.html.
type loginView struct {
	Login    string
	Remember bool
	Next     string
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	if auth.CurrentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Log in", loginView{
		Next: auth.SafeNext(r.URL.Query().Get("next")),
	}, nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	form, errs := validation.ParseLoginForm(r)
	view := loginView{Login: form.Login, Remember: form.Remember, Next: auth.SafeNext(form.Next)}
	if errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Log in", view, errs)
		return
	}

	u, err := s.accounts.Authenticate(r.Context(), scope(r).Conn, form.Login, form.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		s.render(w, r, http.StatusUnauthorized, "login.html", "Log in", view,
			validation.FormErrors{"login": {accounts.MsgInvalidCredentials}})
		return
	}
	if err != nil {
		s.fail(w, r, err, msgLoginFailed, auth.LoginPath)
		return
	}

	if err := s.sessions.Login(w, r, u.ID, form.Remember); err != nil {
		s.fail(w, r, err, msgLoginFailed, auth.LoginPath)
		return
	}

	logging.Ctx(logging.ContextWithActor(r.Context(), u.Login)).Info().
		Bool("remember", form.Remember).
		Msg("User logged in")
	s.redirect(w, r, "success", msgLoggedIn, view.Next)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w, r)
	s.redirect(w, r, "success", msgLoggedOut, "/")
}
