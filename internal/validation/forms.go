// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package validation

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/bookshelf/internal/config"
)

// BookForm is the create and edit book form.
type BookForm struct {
	Title            string  `form:"title" validate:"required"`
	ShortDescription string  `form:"description" validate:"required"`
	Year             int     `form:"year" validate:"required,gte=1,lte=9999"`
	Publisher        string  `form:"publisher" validate:"required"`
	Author           string  `form:"author" validate:"required"`
	Pages            int     `form:"pages" validate:"required,gt=0"`
	GenreIDs         []int64 `form:"genres"`
}

// HasGenre reports whether id is selected; used to pre-check boxes.
func (f BookForm) HasGenre(id int64) bool {
	for _, g := range f.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// ReviewForm is the review submission form.
type ReviewForm struct {
	Rating int    `form:"rating" validate:"min=1,max=5"`
	Text   string `form:"text" validate:"required"`
}

// UserCreateForm is the new user form.
type UserCreateForm struct {
	Login      string `form:"login" validate:"required,login"`
	Password   string `form:"password" validate:"required"`
	FirstName  string `form:"first_name" validate:"required"`
	LastName   string `form:"last_name" validate:"required"`
	MiddleName string `form:"middle_name"`
	RoleID     int64  `form:"role_id"`
}

// UserEditForm is the edit user form. RoleID applies only when the actor
// may assign roles.
type UserEditForm struct {
	FirstName  string `form:"first_name" validate:"required"`
	LastName   string `form:"last_name" validate:"required"`
	MiddleName string `form:"middle_name"`
	RoleID     int64  `form:"role_id"`
}

// ChangePasswordForm is the password change form.
type ChangePasswordForm struct {
	OldPassword     string `form:"old_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required"`
}

// LoginForm is the login form.
type LoginForm struct {
	Login    string `form:"login" validate:"required"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember_me"`
	Next     string `form:"next"`
}

// ParseBookForm reads and validates a BookForm.
func ParseBookForm(r *http.Request) (BookForm, FormErrors) {
	errs := FormErrors{}
	form := BookForm{
		Title:            field(r, "title"),
		ShortDescription: field(r, "description"),
		Publisher:        field(r, "publisher"),
		Author:           field(r, "author"),
	}
	form.Year = intField(r, "year", errs)
	form.Pages = intField(r, "pages", errs)

	for _, raw := range r.Form["genres"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			errs.Add("genres", "Unknown genre selected.")
			continue
		}
		form.GenreIDs = append(form.GenreIDs, id)
	}

	return form, checked(&form, errs)
}

// ParseReviewForm reads and validates a ReviewForm.
func ParseReviewForm(r *http.Request) (ReviewForm, FormErrors) {
	errs := FormErrors{}
	form := ReviewForm{Text: field(r, "text")}
	form.Rating = intField(r, "rating", errs)
	return form, checked(&form, errs)
}

// ParseUserCreateForm reads and validates a UserCreateForm, including the
// password policy.
func ParseUserCreateForm(r *http.Request, policy config.PasswordPolicy) (UserCreateForm, FormErrors) {
	errs := FormErrors{}
	form := UserCreateForm{
		Login:      field(r, "login"),
		Password:   r.FormValue("password"),
		FirstName:  field(r, "first_name"),
		LastName:   field(r, "last_name"),
		MiddleName: field(r, "middle_name"),
	}
	form.RoleID = int64Field(r, "role_id", errs)

	errs = checked(&form, errs)
	if errs == nil {
		errs = FormErrors{}
	}
	errs.Merge(ValidatePassword(policy, form.Password))
	return form, orNil(errs)
}

// ParseUserEditForm reads and validates a UserEditForm.
func ParseUserEditForm(r *http.Request) (UserEditForm, FormErrors) {
	errs := FormErrors{}
	form := UserEditForm{
		FirstName:  field(r, "first_name"),
		LastName:   field(r, "last_name"),
		MiddleName: field(r, "middle_name"),
	}
	form.RoleID = int64Field(r, "role_id", errs)
	return form, checked(&form, errs)
}

// ParseChangePasswordForm reads and validates a ChangePasswordForm. The
// password policy is checked later, after the old password is verified.
func ParseChangePasswordForm(r *http.Request) (ChangePasswordForm, FormErrors) {
	form := ChangePasswordForm{
		OldPassword:     r.FormValue("old_password"),
		NewPassword:     r.FormValue("new_password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
	return form, checked(&form, FormErrors{})
}

// ParseLoginForm reads and validates a LoginForm.
func ParseLoginForm(r *http.Request) (LoginForm, FormErrors) {
	remember, _ := strconv.ParseBool(r.FormValue("remember_me"))
	if r.FormValue("remember_me") == "on" {
		remember = true
	}
	form := LoginForm{
		Login:    field(r, "login"),
		Password: r.FormValue("password"),
		Remember: remember,
		Next:     r.FormValue("next"),
	}
	return form, checked(&form, FormErrors{})
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// intField parses an optional integer; a malformed value is an error under
// the field's key and yields 0.
func intField(r *http.Request, name string, errs FormErrors) int {
	raw := field(r, name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(name, name+" must be a whole number")
		return 0
	}
	return n
}

func int64Field(r *http.Request, name string, errs FormErrors) int64 {
	raw := field(r, name)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errs.Add(name, name+" must be a whole number")
		return 0
	}
	return n
}

// checked runs struct validation and merges it into parse errors.
func checked(form any, errs FormErrors) FormErrors {
	if structErrs := ValidateStruct(form); structErrs != nil {
		errs.Merge(structErrs)
	}
	return orNil(errs)
}

func orNil(errs FormErrors) FormErrors {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
