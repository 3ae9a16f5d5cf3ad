// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/accounts"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/validation"
)

const (
	msgUserCreated      = "User created."
	msgUserUpdated      = "User record updated."
	msgUserDeleted      = "User deleted."
	msgUserNotFound     = "User not found."
	msgUserCreateFailed = "An error occurred while creating the user."
	msgUserUpdateFailed = "An error occurred while updating the user."
	msgUserDeleteFailed = "An error occurred while deleting the user."
	msgPasswordChanged  = "Password changed."
	msgPasswordFailed   = "An error occurred while changing the password."
)

const usersPath = "/users"

// userFormView is the data of user_form.html. Only the create form has a
// login and password; the role select shows when CanAssignRoles is set.
type userFormView struct {
	Action         string
	IsEdit         bool
	Form           validation.UserCreateForm
	Roles          []models.Role
	CanAssignRoles bool
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.List(r.Context(), scope(r).Conn)
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, "/")
		return
	}
	s.render(w, r, http.StatusOK, "users.html", "Users", users, nil)
}

func (s *Server) newUser(w http.ResponseWriter, r *http.Request) {
	s.renderUserForm(w, r, http.StatusOK, userFormView{Action: usersPath + "/new"}, nil)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	view := userFormView{Action: usersPath + "/new"}

	form, errs := validation.ParseUserCreateForm(r, s.accounts.PasswordPolicy())
	view.Form = form
	view.Form.Password = ""
	if errs != nil {
		s.renderUserForm(w, r, http.StatusUnprocessableEntity, view, errs)
		return
	}

	_, err := s.accounts.Create(r.Context(), scope(r).Conn, form)
	var fe validation.FormErrors
	if errors.As(err, &fe) {
		s.renderUserForm(w, r, http.StatusUnprocessableEntity, view, fe)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgUserCreateFailed, view.Action)
		return
	}

	s.redirect(w, r, "success", msgUserCreated, usersPath)
}

func (s *Server) editUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, authz.SubjectParam)
	if !ok {
		s.notFound(w, r)
		return
	}

	u, err := s.accounts.Get(r.Context(), scope(r).Conn, id)
	if errors.Is(err, database.ErrNotFound) {
		s.redirect(w, r, "danger", msgUserNotFound, usersPath)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, usersPath)
		return
	}

	s.renderUserForm(w, r, http.StatusOK, userFormView{
		Action: editUserPath(id),
		IsEdit: true,
		Form: validation.UserCreateForm{
			Login:      u.Login,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			MiddleName: u.MiddleName,
			RoleID:     u.RoleID,
		},
	}, nil)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, authz.SubjectParam)
	if !ok {
		s.notFound(w, r)
		return
	}
	sc := scope(r)

	form, errs := validation.ParseUserEditForm(r)
	view := userFormView{
		Action: editUserPath(id),
		IsEdit: true,
		Form: validation.UserCreateForm{
			FirstName:  form.FirstName,
			LastName:   form.LastName,
			MiddleName: form.MiddleName,
			RoleID:     form.RoleID,
		},
	}
	if errs != nil {
		s.renderUserForm(w, r, http.StatusUnprocessableEntity, view, errs)
		return
	}

	canAssign := s.policy.MustCan(sc.Actor, authz.ResourceUser, authz.ActionAssignRoles)
	err := s.accounts.Update(r.Context(), sc.Conn, id, form, canAssign)
	var fe validation.FormErrors
	switch {
	case err == nil:
		s.redirect(w, r, "success", msgUserUpdated, usersPath)
	case errors.Is(err, database.ErrNotFound):
		s.redirect(w, r, "danger", msgUserNotFound, usersPath)
	case errors.As(err, &fe):
		s.renderUserForm(w, r, http.StatusUnprocessableEntity, view, fe)
	default:
		s.fail(w, r, err, msgUserUpdateFailed, usersPath)
	}
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, authz.SubjectParam)
	if !ok {
		s.notFound(w, r)
		return
	}

	err := s.accounts.Delete(r.Context(), scope(r).Conn, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.redirect(w, r, "danger", msgUserNotFound, usersPath)
	case err != nil:
		s.fail(w, r, err, msgUserDeleteFailed, usersPath)
	default:
		s.redirect(w, r, "success", msgUserDeleted, usersPath)
	}
}

func (s *Server) changePasswordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "change_password.html", "Change password", nil, nil)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	const retry = usersPath + "/change-password"
	sc := scope(r)

	form, errs := validation.ParseChangePasswordForm(r)
	if errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "change_password.html", "Change password", nil, errs)
		return
	}

	err := s.accounts.ChangePassword(r.Context(), sc.Conn, sc.Actor.ID, form)
	var fe validation.FormErrors
	switch {
	case err == nil:
		s.redirect(w, r, "success", msgPasswordChanged, "/")
	case errors.As(err, &fe):
		s.render(w, r, http.StatusUnprocessableEntity, "change_password.html", "Change password", nil, fe)
	case accounts.Message(err) != "":
		s.redirect(w, r, "danger", accounts.Message(err), retry)
	default:
		s.fail(w, r, err, msgPasswordFailed, retry)
	}
}

func (s *Server) renderUserForm(w http.ResponseWriter, r *http.Request, status int, view userFormView, errs validation.FormErrors) {
	roles, err := s.accounts.Roles(r.Context(), scope(r).Conn)
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, usersPath)
		return
	}
	view.Roles = roles
	// creating a user always picks a role; editing one only when allowed
	view.CanAssignRoles = !view.IsEdit ||
		s.policy.MustCan(scope(r).Actor, authz.ResourceUser, authz.ActionAssignRoles)

	title := "New user"
	if view.IsEdit {
		title = "Edit user"
	}
	s.render(w, r, status, "user_form.html", title, view, errs)
}

func editUserPath(id int64) string {
	return fmt.Sprintf("%s/%d/edit", usersPath, id)
}
