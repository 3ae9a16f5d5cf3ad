// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	t.Parallel()

	policy := DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		valid    bool
		wantErr  string
	}{
		{"too short", "short1", false, MsgPasswordLength},
		{"no uppercase", "alllowercase1", false, MsgPasswordUppercase},
		{"no digit", "NoDigitsHere", false, MsgPasswordDigit},
		{"contains space", "Has Space1", false, MsgPasswordWhitespace},
		{"no lowercase", "ALLUPPER123", false, MsgPasswordLowercase},
		{"too long", "Aa1" + strings.Repeat("x", 126), false, MsgPasswordLength},
		{"disallowed character", "Valid123Pass=", false, MsgPasswordCharset},
		{"valid", "Valid123Pass", true, ""},
		{"valid with punctuation", "Valid123Pass!@#", true, ""},
		{"valid cyrillic", "Пароль123Abc", true, ""},
		{"cyrillic uppercase only", "Пароль123abc", false, MsgPasswordUppercase},
		{"cyrillic lowercase only", "Пароль123ABC", false, MsgPasswordLowercase},
		{"exactly eight", "Abcdef12", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := policy.Validate(tt.password)
			if result.Valid != tt.valid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (errors: %v)", tt.password, result.Valid, tt.valid, result.Errors)
			}
			if tt.wantErr != "" && !slices.Contains(result.Errors, tt.wantErr) {
				t.Errorf("Validate(%q).Errors = %v, want to contain %q", tt.password, result.Errors, tt.wantErr)
			}
			if tt.valid && len(result.Errors) != 0 {
				t.Errorf("Validate(%q).Errors = %v, want none", tt.password, result.Errors)
			}
		})
	}
}

func TestPasswordPolicy_ReportsEveryViolation(t *testing.T) {
	t.Parallel()

	result := DefaultPasswordPolicy().Validate("a b")
	want := []string{MsgPasswordLength, MsgPasswordUppercase, MsgPasswordDigit, MsgPasswordWhitespace}
	for _, msg := range want {
		if !slices.Contains(result.Errors, msg) {
			t.Errorf("Errors = %v, missing %q", result.Errors, msg)
		}
	}
}

func TestPasswordPolicy_ValidateWithError(t *testing.T) {
	t.Parallel()

	policy := DefaultPasswordPolicy()
	if err := policy.ValidateWithError("Valid123Pass"); err != nil {
		t.Errorf("ValidateWithError(valid) = %v, want nil", err)
	}

	err := policy.ValidateWithError("short1")
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("ValidateWithError(short1) = %v, want ErrPasswordPolicy", err)
	}
	if !strings.Contains(err.Error(), MsgPasswordLength) {
		t.Errorf("error %q should mention the length rule", err)
	}
}
