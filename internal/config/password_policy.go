// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrPasswordPolicy is wrapped by ValidateWithError when a password violates the policy.
var ErrPasswordPolicy = errors.New("password does not meet policy")

// allowedPasswordChars is the full character set a password may draw from:
// Latin and Cyrillic letters, digits, and the listed punctuation.
var allowedPasswordChars = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ\d~!@#$%^&*_\-+()\[\]{}><\\/|"',.:;]+$`)

// PasswordPolicy defines requirements for account passwords.
type PasswordPolicy struct {
	MinLength int
	MaxLength int

	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool

	// ForbidWhitespace rejects any whitespace character.
	ForbidWhitespace bool

	// RestrictCharset limits passwords to allowedPasswordChars.
	RestrictCharset bool
}

// DefaultPasswordPolicy returns the policy applied to every account.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		ForbidWhitespace: true,
		RestrictCharset:  true,
	}
}

// PasswordValidationResult contains details about password validation.
type PasswordValidationResult struct {
	Valid  bool
	Errors []string
}

// Password policy violation messages.
const (
	MsgPasswordLength     = "Password must be between 8 and 128 characters long"
	MsgPasswordUppercase  = "Password must contain at least one uppercase letter"
	MsgPasswordLowercase  = "Password must contain at least one lowercase letter"
	MsgPasswordDigit      = "Password must contain at least one digit"
	MsgPasswordWhitespace = "Password must not contain spaces"
	MsgPasswordCharset    = "Password contains characters that are not allowed"
)

type charClasses struct {
	hasUpper bool
	hasLower bool
	hasDigit bool
	hasSpace bool
}

func analyzeCharClasses(password string) charClasses {
	var cc charClasses
	for _, r := range password {
		// Cyrillic letters pass the charset check but do not count toward the case rules.
		switch {
		case r >= 'A' && r <= 'Z':
			cc.hasUpper = true
		case r >= 'a' && r <= 'z':
			cc.hasLower = true
		case unicode.IsDigit(r):
			cc.hasDigit = true
		case unicode.IsSpace(r):
			cc.hasSpace = true
		}
	}
	return cc
}

// Validate checks a password against the policy and reports every violated rule.
func (p PasswordPolicy) Validate(password string) PasswordValidationResult {
	result := PasswordValidationResult{Valid: true}

	length := utf8.RuneCountInString(password)
	if length < p.MinLength || (p.MaxLength > 0 && length > p.MaxLength) {
		result.Errors = append(result.Errors, MsgPasswordLength)
	}

	cc := analyzeCharClasses(password)
	if p.RequireUppercase && !cc.hasUpper {
		result.Errors = append(result.Errors, MsgPasswordUppercase)
	}
	if p.RequireLowercase && !cc.hasLower {
		result.Errors = append(result.Errors, MsgPasswordLowercase)
	}
	if p.RequireDigit && !cc.hasDigit {
		result.Errors = append(result.Errors, MsgPasswordDigit)
	}
	if p.ForbidWhitespace && cc.hasSpace {
		result.Errors = append(result.Errors, MsgPasswordWhitespace)
	}
	// whitespace already has its own message
	if p.RestrictCharset && password != "" && !cc.hasSpace && !allowedPasswordChars.MatchString(password) {
		result.Errors = append(result.Errors, MsgPasswordCharset)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateWithError validates and returns an error joining every violation, or nil.
func (p PasswordPolicy) ValidateWithError(password string) error {
	result := p.Validate(password)
	if result.Valid {
		return nil
	}
	return errors.Join(ErrPasswordPolicy, errors.New(strings.Join(result.Errors, "; ")))
}
