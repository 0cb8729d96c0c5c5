package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupHandlerTest(t, time.Now())

	w := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "runner@example.com", "password": "secret1"})
	expectStatus(t, w, http.StatusCreated)
	if id, _ := decodeBody(t, w)["userId"].(string); id == "" {
		t.Fatalf("expected userId in response, got %s", w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "Runner@Example.com", "password": "secret2"})
	expectError(t, w, http.StatusConflict, "User already exists")

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "runner@example.com", "password": "secret1"})
	expectStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response, got %s", w.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "runner@example.com" {
		t.Fatalf("unexpected user payload: %v", body["user"])
	}

	w = env.do(t, http.MethodGet, "/auth/profile", token, nil)
	expectStatus(t, w, http.StatusOK)
	profile, _ := decodeBody(t, w)["user"].(map[string]any)
	if profile["id"] != user["id"] {
		t.Fatalf("expected profile id %v, got %v", user["id"], profile["id"])
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupHandlerTest(t, time.Now())

	w := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "nope", "password": "secret1"})
	expectError(t, w, http.StatusBadRequest, "Email is invalid")

	w = env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "a@example.com", "password": "123"})
	expectError(t, w, http.StatusBadRequest, "Password must be at least 6 characters")

	w = env.do(t, http.MethodPost, "/auth/register", "", "{not json")
	expectError(t, w, http.StatusBadRequest, "Invalid request body")
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := setupHandlerTest(t, time.Now())

	w := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "runner@example.com", "password": "secret1"})
	expectStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "runner@example.com", "password": "wrong-pass"})
	expectError(t, w, http.StatusUnauthorized, "Invalid credentials")

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ghost@example.com", "password": "secret1"})
	expectError(t, w, http.StatusUnauthorized, "Invalid credentials")
}

func TestAuthRequired(t *testing.T) {
	env := setupHandlerTest(t, time.Now())

	w := env.do(t, http.MethodGet, "/goals/active", "", nil)
	expectError(t, w, http.StatusUnauthorized, "Unauthorized")

	w = env.do(t, http.MethodGet, "/goals/active", "garbage", nil)
	expectError(t, w, http.StatusUnauthorized, "Unauthorized")

	req := httptest.NewRequest(http.MethodGet, "/goals/active", nil)
	req.Header.Set("Authorization", "Token "+env.token(t, "u1"))
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	expectError(t, w, http.StatusUnauthorized, "Unauthorized")

	w = env.do(t, http.MethodGet, "/goals/active", env.token(t, "u1"), nil)
	expectError(t, w, http.StatusNotFound, "No active goal found")
}

func TestSessionCookieAuthenticatesUntilLogout(t *testing.T) {
	env := setupHandlerTest(t, time.Now())

	w := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "runner@example.com", "password": "secret1"})
	expectStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "runner@example.com", "password": "secret1"})
	expectStatus(t, w, http.StatusOK)
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie after login")
	}

	withCookies := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		env.engine.ServeHTTP(rec, req)
		return rec
	}

	expectStatus(t, withCookies(http.MethodGet, "/auth/profile"), http.StatusOK)

	logout := withCookies(http.MethodPost, "/auth/logout")
	expectStatus(t, logout, http.StatusOK)
	cookies = logout.Result().Cookies()

	expectError(t, withCookies(http.MethodGet, "/auth/profile"), http.StatusUnauthorized, "Unauthorized")
}

func TestProfileUnknownUser(t *testing.T) {
	env := setupHandlerTest(t, time.Now())

	w := env.do(t, http.MethodGet, "/auth/profile", env.token(t, "deleted-user"), nil)
	expectError(t, w, http.StatusUnauthorized, "Unauthorized")
}
