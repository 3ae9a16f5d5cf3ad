// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/bookshelf/internal/config"
)

// Grouped error keys.
const (
	KeyRequired       = "required_fields"
	KeyLoginFormat    = "login_format"
	KeyPassword       = "password"
	KeyDuplicateLogin = "duplicate_login"
)

// Messages for grouped keys.
const (
	MsgRequired       = "Not all required fields are filled in."
	MsgLoginFormat    = "Login must consist of Latin letters and digits and be at least 5 characters long."
	MsgDuplicateLogin = "A user with this login already exists."
)

// loginPattern is the accepted login shape.
var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9]{5,}$`)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FormErrors maps an error key to its messages.
type FormErrors map[string][]string

// Add appends a message under key.
func (e FormErrors) Add(key, message string) {
	e[key] = append(e[key], message)
}

// Has reports whether key has any message.
func (e FormErrors) Has(key string) bool {
	return len(e[key]) > 0
}

// First returns the first message under key, or "".
func (e FormErrors) First(key string) string {
	if msgs := e[key]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Any reports whether there is at least one error.
func (e FormErrors) Any() bool {
	return len(e) > 0
}

// Merge copies other into e.
func (e FormErrors) Merge(other FormErrors) {
	for key, msgs := range other {
		e[key] = append(e[key], msgs...)
	}
}

// Error joins every message, so FormErrors can travel as an error.
func (e FormErrors) Error() string {
	var msgs []string
	for _, list := range e {
		msgs = append(msgs, list...)
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator instance.
// Field names in errors are taken from the form tag.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})

		// login: Latin letters and digits, at least five characters
		//nolint:errcheck // the tag name is a constant
		validate.RegisterValidation("login", func(fl validator.FieldLevel) bool {
			return loginPattern.MatchString(fl.Field().String())
		})
	})

	return validate
}

// ValidateStruct validates s and returns nil when it passes.
func ValidateStruct(s any) FormErrors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	errs := FormErrors{}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs.Add("form", err.Error())
		return errs
	}

	for _, fe := range validationErrs {
		key, msg := translateError(fe)
		if key == KeyRequired && errs.Has(KeyRequired) {
			continue
		}
		errs.Add(key, msg)
	}
	return errs
}

// ValidatePassword applies the password policy.
func ValidatePassword(policy config.PasswordPolicy, password string) FormErrors {
	result := policy.Validate(password)
	if result.Valid {
		return nil
	}
	errs := FormErrors{}
	for _, msg := range result.Errors {
		errs.Add(KeyPassword, msg)
	}
	return errs
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"gte": "%s must be greater than or equal to %s",
	"lte": "%s must be less than or equal to %s",
	"gt":  "%s must be greater than %s",
	"min": "%s must be at least %s",
	"max": "%s must be at most %s",
}

// translateError converts a validator.FieldError into a key and message.
func translateError(fe validator.FieldError) (string, string) {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return KeyRequired, MsgRequired
	case "login":
		return KeyLoginFormat, MsgLoginFormat
	}

	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return field, fmt.Sprintf(template, field, fe.Param())
	}
	return field, fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
