// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
)

type testEnv struct {
	manager *Manager
	store   *MemorySessionStore
	users   map[int64]*models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	keys, err := config.DeriveCookieKeys("unit-test-secret-key-0123456789")
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		store: NewMemorySessionStore(),
		users: map[int64]*models.User{
			1: {ID: 1, Login: "admin1", RoleID: 1},
			3: {ID: 3, Login: "reader", RoleID: 3},
		},
	}
	loader := func(_ *http.Request, id int64) (*models.User, error) {
		if u, ok := env.users[id]; ok {
			return u, nil
		}
		return nil, database.ErrNotFound
	}

	env.manager, err = NewManager(env.store, loader, Config{
		Keys:        keys,
		SessionTTL:  time.Hour,
		RememberTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return env
}

// login performs a Login and returns the cookies it set.
func (e *testEnv) login(t *testing.T, userID int64, remember bool, prior ...*http.Cookie) []*http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	for _, c := range prior {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	if err := e.manager.Login(rec, req, userID, remember); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return rec.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func whoAmI(e *testEnv, cookies []*http.Cookie) (string, *httptest.ResponseRecorder) {
	var login string
	handler := e.manager.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if u := CurrentUser(r); u != nil {
			login = u.Login
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return login, rec
}

func TestManager_LoginAuthenticate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cookies := env.login(t, 3, false)
	if got, _ := whoAmI(env, cookies); got != "reader" {
		t.Errorf("authenticated login = %q, want reader", got)
	}
}

func TestManager_RememberCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	session := cookieNamed(env.login(t, 1, false), SessionCookieName)
	if session == nil || session.MaxAge != 0 {
		t.Errorf("non-remember cookie = %+v, want browser-session cookie", session)
	}

	persistent := cookieNamed(env.login(t, 1, true), SessionCookieName)
	if persistent == nil || persistent.MaxAge != int((24*time.Hour).Seconds()) {
		t.Errorf("remember cookie = %+v, want MaxAge of remember TTL", persistent)
	}
}

func TestManager_LoginRotatesSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	first := env.login(t, 3, false)
	second := env.login(t, 1, false, first...)

	if got, _ := whoAmI(env, first); got != "" {
		t.Errorf("old session still authenticates as %q", got)
	}
	if got, _ := whoAmI(env, second); got != "admin1" {
		t.Errorf("new session login = %q, want admin1", got)
	}
	if env.store.Count() != 1 {
		t.Errorf("stored sessions = %d, want 1", env.store.Count())
	}
}

func TestManager_DeletedUserIsAnonymous(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cookies := env.login(t, 3, false)
	delete(env.users, 3)

	got, rec := whoAmI(env, cookies)
	if got != "" {
		t.Errorf("deleted user authenticated as %q", got)
	}
	if c := cookieNamed(rec.Result().Cookies(), SessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Error("session cookie was not cleared")
	}
}

func TestManager_TamperedCookieIgnored(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cookie := cookieNamed(env.login(t, 1, false), SessionCookieName)
	cookie.Value = cookie.Value[:len(cookie.Value)-4] + "AAAA"

	if got, _ := whoAmI(env, []*http.Cookie{cookie}); got != "" {
		t.Errorf("tampered cookie authenticated as %q", got)
	}
}

func TestManager_Logout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cookies := env.login(t, 1, false)
	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	env.manager.Logout(httptest.NewRecorder(), req)

	if got, _ := whoAmI(env, cookies); got != "" {
		t.Errorf("session survived logout as %q", got)
	}
}

func TestManager_RequireLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	called := false
	handler := env.manager.RequireLogin(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/new?x=1", nil))

	if called {
		t.Fatal("handler invoked for anonymous request")
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	if loc.Path != LoginPath || loc.Query().Get("next") != "/books/new?x=1" {
		t.Errorf("redirect = %s", loc)
	}

	flashReq := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	for _, c := range rec.Result().Cookies() {
		flashReq.AddCookie(c)
	}
	flashes := env.manager.PopFlashes(httptest.NewRecorder(), flashReq)
	if len(flashes) != 1 || flashes[0].Message != LoginRequiredMessage {
		t.Errorf("flashes = %+v", flashes)
	}
}

func TestManager_FlashRoundTrip(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/books/new", nil)
	env.manager.Flash(rec, req, "success", "Book created.")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	popRec := httptest.NewRecorder()
	flashes := env.manager.PopFlashes(popRec, next)

	if len(flashes) != 1 || flashes[0] != (Flash{Category: "success", Message: "Book created."}) {
		t.Errorf("flashes = %+v", flashes)
	}
	if c := cookieNamed(popRec.Result().Cookies(), FlashCookieName); c == nil || c.MaxAge >= 0 {
		t.Error("flash cookie not cleared after pop")
	}
}

func TestManager_FlashesAccumulateWithinRequest(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// The incoming request already carries one flash from a previous response.
	seed := httptest.NewRecorder()
	env.manager.Flash(seed, httptest.NewRequest(http.MethodGet, "/", nil), "warning", "Earlier notice.")

	handler := env.manager.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.manager.Flash(w, r, "danger", "Access denied.")
		env.manager.Flash(w, r, "success", "Book deleted.")
	}))

	req := httptest.NewRequest(http.MethodPost, "/books/1/delete", nil)
	for _, c := range seed.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Browsers keep the last Set-Cookie for a name.
	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == FlashCookieName {
			last = c
		}
	}
	if last == nil {
		t.Fatal("no flash cookie set")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(last)
	got := env.manager.PopFlashes(httptest.NewRecorder(), next)
	want := []Flash{
		{Category: "warning", Message: "Earlier notice."},
		{Category: "danger", Message: "Access denied."},
		{Category: "success", Message: "Book deleted."},
	}
	if !slices.Equal(got, want) {
		t.Errorf("flashes = %+v, want %+v", got, want)
	}
}

func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/books/3", "/books/3"},
		{"/users?page=2", "/users?page=2"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{`/\evil.example`, "/"},
		{"books", "/"},
	}
	for _, tt := range tests {
		if got := SafeNext(tt.in); got != tt.want {
			t.Errorf("SafeNext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewManager_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(NewMemorySessionStore(), nil, Config{}); err == nil {
		t.Error("NewManager() without keys succeeded")
	}
}

func TestCSRF(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var token string
	handler := env.manager.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = env.manager.CSRFToken(r)
		w.WriteHeader(http.StatusOK)
	}))

	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/books/new", nil))
	seed := cookieNamed(getRec.Result().Cookies(), CSRFCookieName)
	if seed == nil || token == "" {
		t.Fatalf("GET did not issue a CSRF seed (cookie %v, token %q)", seed, token)
	}

	post := func(form url.Values, withCookie bool) int {
		req := httptest.NewRequest(http.MethodPost, "/books/new", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if withCookie {
			req.AddCookie(seed)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	tests := []struct {
		name       string
		form       url.Values
		withCookie bool
		want       int
	}{
		{"valid token", url.Values{CSRFFormField: {token}}, true, http.StatusOK},
		{"missing token", url.Values{}, true, http.StatusForbidden},
		{"wrong token", url.Values{CSRFFormField: {"forged"}}, true, http.StatusForbidden},
		{"no seed cookie", url.Values{CSRFFormField: {token}}, false, http.StatusForbidden},
	}
	for _, tt := range tests {
		if got := post(tt.form, tt.withCookie); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestLoginLimiter(t *testing.T) {
	t.Parallel()

	handler := LoginLimiter(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	getReq.RemoteAddr = "203.0.113.9:4000"
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, getReq)
	codes = append(codes, getRec.Code)

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}
}
