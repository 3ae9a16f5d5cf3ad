// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package validation checks submitted forms using go-playground/validator v10.
//
// Each page form has a struct with form and validate tags and a Parse
// function that reads it from a request. Validation failures are returned as
// FormErrors, a map from a stable key to messages that templates render
// inline next to the form:
//
//	form, errs := validation.ParseUserCreateForm(r)
//	if errs.Any() {
//	    render(w, "user_form.html", form, errs)
//	    return
//	}
//
// Keys are either a field's form name (rating, year) or one of the grouped
// keys used by the user forms: required_fields, login_format, password and
// duplicate_login.
//
// Password rules live in config.PasswordPolicy; ValidatePassword adapts them
// into FormErrors.
package validation
