// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package validation

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/tomtom215/bookshelf/internal/config"
)

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func TestLoginTag(t *testing.T) {
	t.Parallel()

	type loginOnly struct {
		Login string `form:"login" validate:"login"`
	}

	tests := []struct {
		login string
		valid bool
	}{
		{"admin", true},
		{"User2024", true},
		{"abcd", false},
		{"user_name", false},
		{"юзернейм", false},
		{"with space", false},
	}

	for _, tt := range tests {
		errs := ValidateStruct(&loginOnly{Login: tt.login})
		if got := errs == nil; got != tt.valid {
			t.Errorf("login %q valid = %v, want %v (errs %v)", tt.login, got, tt.valid, errs)
		}
		if !tt.valid && errs.First(KeyLoginFormat) != MsgLoginFormat {
			t.Errorf("login %q: missing login_format message, got %v", tt.login, errs)
		}
	}
}

func TestParseBookForm(t *testing.T) {
	t.Parallel()

	valid := url.Values{
		"title":       {" Dune "},
		"description": {"Desert planet"},
		"year":        {"1965"},
		"publisher":   {"Chilton"},
		"author":      {"Frank Herbert"},
		"pages":       {"412"},
		"genres":      {"1", "2"},
	}

	form, errs := ParseBookForm(postForm(valid))
	if errs != nil {
		t.Fatalf("ParseBookForm() errs = %v", errs)
	}
	if form.Title != "Dune" || form.Year != 1965 || form.Pages != 412 {
		t.Errorf("form = %+v", form)
	}
	if !form.HasGenre(2) || form.HasGenre(3) {
		t.Errorf("GenreIDs = %v", form.GenreIDs)
	}

	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantKey string
	}{
		{"missing title", func(v url.Values) { v.Del("title") }, KeyRequired},
		{"non-numeric year", func(v url.Values) { v.Set("year", "soon") }, "year"},
		{"negative pages", func(v url.Values) { v.Set("pages", "-3") }, "pages"},
		{"bad genre id", func(v url.Values) { v["genres"] = []string{"x"} }, "genres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values := url.Values{}
			for k, v := range valid {
				values[k] = append([]string(nil), v...)
			}
			tt.mutate(values)

			_, errs := ParseBookForm(postForm(values))
			if !errs.Has(tt.wantKey) {
				t.Errorf("errs = %v, want key %q", errs, tt.wantKey)
			}
		})
	}
}

func TestParseReviewForm_RatingRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rating string
		valid  bool
	}{
		{"1", true},
		{"5", true},
		{"0", false},
		{"6", false},
		{"", false},
		{"five", false},
	}

	for _, tt := range tests {
		form, errs := ParseReviewForm(postForm(url.Values{"rating": {tt.rating}, "text": {"Great"}}))
		if got := errs == nil; got != tt.valid {
			t.Errorf("rating %q valid = %v, want %v (errs %v)", tt.rating, got, tt.valid, errs)
		}
		if tt.valid && form.Text != "Great" {
			t.Errorf("Text = %q", form.Text)
		}
		if !tt.valid && !errs.Has("rating") {
			t.Errorf("rating %q: errs %v missing rating key", tt.rating, errs)
		}
	}
}

func TestParseUserCreateForm(t *testing.T) {
	t.Parallel()

	policy := config.DefaultPasswordPolicy()

	form, errs := ParseUserCreateForm(postForm(url.Values{
		"login":      {"reader1"},
		"password":   {"Valid123Pass"},
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"role_id":    {"3"},
	}), policy)
	if errs != nil {
		t.Fatalf("errs = %v", errs)
	}
	if form.RoleID != 3 || form.MiddleName != "" {
		t.Errorf("form = %+v", form)
	}

	_, errs = ParseUserCreateForm(postForm(url.Values{
		"login":    {"abc"},
		"password": {"short1"},
	}), policy)
	for _, key := range []string{KeyRequired, KeyLoginFormat, KeyPassword} {
		if !errs.Has(key) {
			t.Errorf("errs = %v, missing %q", errs, key)
		}
	}
	if n := len(errs[KeyRequired]); n != 1 {
		t.Errorf("required_fields has %d messages, want 1", n)
	}
}

func TestParseLoginForm(t *testing.T) {
	t.Parallel()

	form, errs := ParseLoginForm(postForm(url.Values{
		"login":       {"admin"},
		"password":    {"secret"},
		"remember_me": {"on"},
		"next":        {"/books/1"},
	}))
	if errs != nil {
		t.Fatalf("errs = %v", errs)
	}
	if !form.Remember || form.Next != "/books/1" {
		t.Errorf("form = %+v", form)
	}

	if _, errs := ParseLoginForm(postForm(url.Values{"login": {"admin"}})); !errs.Has(KeyRequired) {
		t.Errorf("missing password not reported: %v", errs)
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	policy := config.DefaultPasswordPolicy()
	if errs := ValidatePassword(policy, "Valid123Pass"); errs != nil {
		t.Errorf("valid password rejected: %v", errs)
	}
	errs := ValidatePassword(policy, "Has Space1")
	if !errs.Has(KeyPassword) {
		t.Fatalf("errs = %v", errs)
	}
	if !strings.Contains(errs.Error(), config.MsgPasswordWhitespace) {
		t.Errorf("Error() = %q, want whitespace message", errs.Error())
	}
}
