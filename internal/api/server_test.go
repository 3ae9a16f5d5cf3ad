// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/storage"
	"github.com/tomtom215/bookshelf/internal/testinfra"
)

var (
	csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
	pngCover    = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

type testApp struct {
	db  *database.DB
	srv *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testinfra.NewTestDB(t)
	cfg := &config.Config{
		Security: config.SecurityConfig{
			SecretKey:       "api-test-secret-0123456789abcdef",
			AdminRoleID:     1,
			ModeratorRoleID: 2,
			SessionTimeout:  time.Hour,
			RememberTimeout: 24 * time.Hour,
			LoginRateLimit:  1000,
			LoginRateWindow: time.Minute,
		},
	}

	policy, err := authz.NewPolicy(authz.Config{Roles: authz.Roles{AdminID: 1, ModeratorID: 2}})
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	server, err := NewServer(Deps{
		Config:   cfg,
		DB:       db,
		Sessions: auth.NewMemorySessionStore(),
		Policy:   policy,
		Covers:   storage.NewLocalStore(t.TempDir(), "/images/"),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &testApp{db: db, srv: srv}
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	app    *testApp
	client *http.Client
	token  string
}

func (a *testApp) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &browser{
		t:   t,
		app: a,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (b *browser) get(path string) (status int, location, body string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.app.srv.URL+path, nil)
	if err != nil {
		b.t.Fatal(err)
	}
	return b.do(req)
}

// csrf returns the token bound to this browser's seed cookie, loading the
// login page the first time. The seed survives login.
func (b *browser) csrf() string {
	b.t.Helper()
	if b.token != "" {
		return b.token
	}
	_, _, body := b.get(auth.LoginPath)
	m := csrfPattern.FindStringSubmatch(body)
	if m == nil {
		b.t.Fatalf("no CSRF token in login page")
	}
	b.token = m[1]
	return b.token
}

func (b *browser) post(path string, form url.Values) (status int, location, body string) {
	b.t.Helper()
	if form.Get(auth.CSRFFormField) == "" {
		form.Set(auth.CSRFFormField, b.csrf())
	}
	req, err := http.NewRequest(http.MethodPost, b.app.srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		b.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(login string) {
	b.t.Helper()
	status, location, _ := b.post(auth.LoginPath, url.Values{"login": {login}, "password": {testinfra.TestPassword}})
	if status != http.StatusSeeOther || location != "/" {
		b.t.Fatalf("login(%s) = %d -> %q, want 303 -> /", login, status, location)
	}
}

func bookValues(title string) url.Values {
	return url.Values{
		"title":       {title},
		"description": {"About " + title},
		"year":        {"1999"},
		"publisher":   {"Press"},
		"author":      {"Author"},
		"pages":       {"123"},
		"genres":      {"1", "2"},
	}
}

func TestPublicPages(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	testinfra.SeedBook(t, app.db, "Visible Book", 2005)
	b := app.browser(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "Visible Book"},
		{"/page/1", http.StatusOK, "Page 1 of 1"},
		{"/page/7", http.StatusOK, "No books on this page."},
		{"/page/abc", http.StatusNotFound, "does not exist"},
		{"/books/999", http.StatusNotFound, "does not exist"},
		{"/users", http.StatusOK, "Users"},
		{"/healthz", http.StatusOK, "ok"},
		{"/metrics", http.StatusOK, "bookshelf_"},
	}

	for _, tt := range tests {
		status, _, body := b.get(tt.path)
		if status != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, status, tt.wantStatus)
		}
		if !strings.Contains(body, tt.wantBody) {
			t.Errorf("GET %s body does not contain %q", tt.path, tt.wantBody)
		}
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	testinfra.SeedUser(t, app.db, "reader1", 3)

	t.Run("invalid credentials", func(t *testing.T) {
		b := app.browser(t)
		status, _, body := b.post(auth.LoginPath, url.Values{"login": {"reader1"}, "password": {"Wrong123Pass"}})
		if status != http.StatusUnauthorized || !strings.Contains(body, "Invalid login or password.") {
			t.Errorf("bad login = %d, want 401 with message", status)
		}
	})

	t.Run("redirects to next and logs out", func(t *testing.T) {
		b := app.browser(t)
		status, location, _ := b.post(auth.LoginPath, url.Values{
			"login": {"reader1"}, "password": {testinfra.TestPassword}, "next": {"/users"},
		})
		if status != http.StatusSeeOther || location != "/users" {
			t.Fatalf("login = %d -> %q, want 303 -> /users", status, location)
		}

		_, _, body := b.get("/")
		if !strings.Contains(body, "Log out") {
			t.Error("logged in page has no logout link")
		}

		b.get("/auth/logout")
		if _, _, body := b.get("/"); strings.Contains(body, "Log out") {
			t.Error("still logged in after logout")
		}
	})

	t.Run("open redirect is refused", func(t *testing.T) {
		b := app.browser(t)
		_, location, _ := b.post(auth.LoginPath, url.Values{
			"login": {"reader1"}, "password": {testinfra.TestPassword}, "next": {"//evil.example"},
		})
		if location != "/" {
			t.Errorf("location = %q, want /", location)
		}
	})
}

func TestCSRFRequired(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	b := app.browser(t)

	status, _, _ := b.post(auth.LoginPath, url.Values{auth.CSRFFormField: {"forged"}, "login": {"x"}})
	if status != http.StatusForbidden {
		t.Errorf("forged token status = %d, want 403", status)
	}
}

func TestGuards(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	admin := testinfra.SeedUser(t, app.db, "admin01", 1)
	testinfra.SeedUser(t, app.db, "moder01", 2)
	reader := testinfra.SeedUser(t, app.db, "reader1", 3)
	bookID := testinfra.SeedBook(t, app.db, "Guarded", 2001)
	bookURL := bookPath(bookID)

	t.Run("anonymous is sent to login", func(t *testing.T) {
		b := app.browser(t)
		status, location, _ := b.get("/books/new")
		if status != http.StatusSeeOther || !strings.HasPrefix(location, auth.LoginPath+"?next=") {
			t.Errorf("GET /books/new = %d -> %q, want login redirect", status, location)
		}
	})

	t.Run("regular user is denied", func(t *testing.T) {
		b := app.browser(t)
		b.login("reader1")
		status, location, _ := b.get("/books/new")
		if status != http.StatusSeeOther || location != "/" {
			t.Errorf("GET /books/new = %d -> %q, want 303 -> /", status, location)
		}
		_, _, body := b.get("/")
		if !strings.Contains(body, authz.DeniedMessage) {
			t.Error("denial flash not shown")
		}
	})

	t.Run("moderator edits regular users only", func(t *testing.T) {
		b := app.browser(t)
		b.login("moder01")

		if status, _, _ := b.get(editUserPath(reader.ID)); status != http.StatusOK {
			t.Errorf("moderator editing regular user status = %d, want 200", status)
		}
		status, location, _ := b.get(editUserPath(admin.ID))
		if status != http.StatusSeeOther || location != usersPath {
			t.Errorf("moderator editing admin = %d -> %q, want 303 -> /users", status, location)
		}
		if status, _, _ := b.get(bookURL + "/edit"); status != http.StatusOK {
			t.Errorf("moderator editing book status = %d, want 200", status)
		}
		if status, location, _ := b.post(bookURL+"/delete", url.Values{}); location != "/" || status != http.StatusSeeOther {
			t.Errorf("moderator delete = %d -> %q", status, location)
		}
		if _, _, body := b.get(bookURL); !strings.Contains(body, "Guarded") {
			t.Error("moderator was able to delete a book")
		}
	})

	t.Run("admin role assignment", func(t *testing.T) {
		b := app.browser(t)
		b.login("admin01")

		status, _, _ := b.post(editUserPath(reader.ID), url.Values{
			"first_name": {"Promoted"}, "last_name": {"User"}, "role_id": {"2"},
		})
		if status != http.StatusSeeOther {
			t.Fatalf("admin update status = %d, want 303", status)
		}
		_, _, body := b.get(usersPath)
		if !strings.Contains(body, "Promoted") || !strings.Contains(body, "moderator") {
			t.Error("user list does not show the promoted user")
		}
	})
}

func TestBookLifecycle(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	testinfra.SeedUser(t, app.db, "admin01", 1)
	testinfra.SeedUser(t, app.db, "reader1", 3)

	admin := app.browser(t)
	admin.login("admin01")

	// invalid form re-renders with an inline error
	bad := bookValues("")
	status, _, body := admin.post("/books/new", bad)
	if status != http.StatusUnprocessableEntity || !strings.Contains(body, "Not all required fields are filled in.") {
		t.Fatalf("invalid create = %d, want 422 with required message", status)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range bookValues("Uploaded") {
		for _, v := range values {
			_ = mw.WriteField(key, v)
		}
	}
	_ = mw.WriteField(auth.CSRFFormField, admin.csrf())
	part, err := mw.CreateFormFile("cover", "front.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(pngCover)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, app.srv.URL+"/books/new", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, location, _ := admin.do(req)
	if status != http.StatusSeeOther || !strings.HasPrefix(location, "/books/") {
		t.Fatalf("create = %d -> %q, want redirect to the book", status, location)
	}

	_, _, body = admin.get(location)
	if !strings.Contains(body, "Uploaded") || !strings.Contains(body, "Book added.") {
		t.Error("book page missing title or success flash")
	}
	img := regexp.MustCompile(`src="(/images/[^"]+)"`).FindStringSubmatch(body)
	if img == nil {
		t.Fatal("book page has no cover image")
	}
	if status, _, _ := admin.get(img[1]); status != http.StatusOK {
		t.Errorf("GET %s status = %d, want 200", img[1], status)
	}

	reader := app.browser(t)
	reader.login("reader1")
	status, _, _ = reader.post(location+"/review", url.Values{"rating": {"4"}, "text": {"<i>Solid</i><script>x()</script>"}})
	if status != http.StatusSeeOther {
		t.Fatalf("review status = %d, want 303", status)
	}
	_, _, body = reader.get(location)
	if !strings.Contains(body, "<i>Solid</i>") || strings.Contains(body, "x()") {
		t.Error("review text was not sanitized as expected")
	}
	if !strings.Contains(body, "You have already reviewed this book.") {
		t.Error("reviewed flag not shown")
	}
	status, redirect, _ := reader.get(location + "/review")
	if status != http.StatusSeeOther || redirect != location {
		t.Errorf("second review form = %d -> %q, want redirect to the book", status, redirect)
	}

	status, _, _ = reader.post(location+"/review", url.Values{"rating": {"9"}, "text": {"Too high"}})
	if status != http.StatusUnprocessableEntity {
		t.Errorf("out of range rating status = %d, want 422", status)
	}

	status, redirect, _ = admin.post(location+"/delete", url.Values{})
	if status != http.StatusSeeOther || redirect != "/" {
		t.Fatalf("delete = %d -> %q, want 303 -> /", status, redirect)
	}
	if status, _, _ := admin.get(location); status != http.StatusNotFound {
		t.Errorf("deleted book status = %d, want 404", status)
	}
	if status, _, _ := admin.get(img[1]); status != http.StatusNotFound {
		t.Errorf("orphan cover still served: %d", status)
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	testinfra.SeedUser(t, app.db, "reader1", 3)
	b := app.browser(t)
	b.login("reader1")

	status, location, _ := b.post("/users/change-password", url.Values{
		"old_password": {"Wrong123Pass"}, "new_password": {"Newer456Pass"}, "confirm_password": {"Newer456Pass"},
	})
	if status != http.StatusSeeOther || location != "/users/change-password" {
		t.Fatalf("wrong old password = %d -> %q", status, location)
	}
	if _, _, body := b.get("/users/change-password"); !strings.Contains(body, "Incorrect old password.") {
		t.Error("wrong password flash not shown")
	}

	status, location, _ = b.post("/users/change-password", url.Values{
		"old_password": {testinfra.TestPassword}, "new_password": {"Newer456Pass"}, "confirm_password": {"Newer456Pass"},
	})
	if status != http.StatusSeeOther || location != "/" {
		t.Fatalf("change password = %d -> %q, want 303 -> /", status, location)
	}
}
