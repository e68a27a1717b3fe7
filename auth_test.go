package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func setupAuthDB(t *testing.T) *Console {
	t.Helper()
	return setupTestConsole(t, &fakeAPI{})
}

func TestCheckPassword(t *testing.T) {
	hash := mustHashPassword("secret")

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct password", "secret", true},
		{"wrong password", "wrong", false},
		{"empty password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkPassword(hash, tt.password)
			if got != tt.want {
				t.Errorf("checkPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	token1, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken() error: %v", err)
	}

	if len(token1) != 64 { // 32 bytes = 64 hex chars
		t.Errorf("expected token length 64, got %d", len(token1))
	}

	token2, _ := generateToken()
	if token1 == token2 {
		t.Error("expected unique tokens")
	}
}

func TestCreateAndGetSession(t *testing.T) {
	console := setupAuthDB(t)

	token, err := createSession(console.db)
	if err != nil {
		t.Fatalf("createSession() error: %v", err)
	}

	session, err := getSession(console.db, token)
	if err != nil {
		t.Fatalf("getSession() error: %v", err)
	}

	if session == nil {
		t.Fatal("expected session, got nil")
	}

	if session.Token != token {
		t.Errorf("expected token %q, got %q", token, session.Token)
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Errorf("expected expiry after creation, got %v <= %v", session.ExpiresAt, session.CreatedAt)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	console := setupAuthDB(t)

	session, err := getSession(console.db, "nonexistent")
	if err != nil {
		t.Fatalf("getSession() error: %v", err)
	}

	if session != nil {
		t.Error("expected nil session for nonexistent token")
	}
}

func TestGetSession_Expired(t *testing.T) {
	console := setupAuthDB(t)

	past := time.Now().UTC().Add(-time.Hour)
	_, err := console.db.Exec("INSERT INTO sessions (token, created_at, expires_at) VALUES (?, ?, ?)", "old", past.Add(-sessionDuration), past)
	if err != nil {
		t.Fatalf("inserting expired session: %v", err)
	}

	session, err := getSession(console.db, "old")
	if err != nil {
		t.Fatalf("getSession() error: %v", err)
	}
	if session != nil {
		t.Error("expected expired session to be ignored")
	}
}

func TestDeleteSession(t *testing.T) {
	console := setupAuthDB(t)

	token, _ := createSession(console.db)
	err := deleteSession(console.db, token)
	if err != nil {
		t.Fatalf("deleteSession() error: %v", err)
	}

	session, _ := getSession(console.db, token)
	if session != nil {
		t.Error("expected session to be deleted")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	console := setupAuthDB(t)

	live, _ := createSession(console.db)
	past := time.Now().UTC().Add(-time.Hour)
	console.db.Exec("INSERT INTO sessions (token, created_at, expires_at) VALUES (?, ?, ?)", "old", past.Add(-sessionDuration), past)

	if err := cleanupExpiredSessions(console.db); err != nil {
		t.Fatalf("cleanupExpiredSessions() error: %v", err)
	}

	var count int
	console.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 session left, got %d", count)
	}
	if session, _ := getSession(console.db, live); session == nil {
		t.Error("expected live session kept")
	}
}

func TestValidateCSRF(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		form   string
		want   bool
	}{
		{"matching", "abc", "abc", true},
		{"mismatch", "abc", "abd", false},
		{"missing cookie", "", "abc", false},
		{"missing form value", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.form != "" {
				form.Set(csrfFieldName, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}

			if got := validateCSRF(req); got != tt.want {
				t.Errorf("validateCSRF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureCSRFToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	token := ensureCSRFToken(w, req)
	if token == "" {
		t.Fatal("expected a new token")
	}

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName && c.Value == token {
			found = true
		}
	}
	if !found {
		t.Error("expected CSRF cookie to be set")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w = httptest.NewRecorder()

	if got := ensureCSRFToken(w, req); got != "existing" {
		t.Errorf("expected existing token reused, got %q", got)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie when token exists")
	}
}
