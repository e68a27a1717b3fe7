package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	uiSessionName  = "console-ui"
	promptOpenKey  = "prompt_open"
	promptErrorKey = "prompt_error"

	incorrectPasswordMessage = "Incorrect password. Please try again."
	adminRequiredMessage     = "You need to be in Admin Mode to do that."
)

var ErrIncorrectPassword = errors.New("incorrect admin password")

// Gate decides whether a request is in admin mode. Elevation is a sqlite
// session row named by the session cookie.
type Gate struct {
	db   *sql.DB
	hash string
}

func NewGate(db *sql.DB, hash string) *Gate {
	return &Gate{db: db, hash: hash}
}

func (g *Gate) IsElevated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	session, err := getSession(g.db, cookie.Value)
	if err != nil {
		log.Printf("looking up admin session: %v", err)
		return false
	}
	return session != nil
}

// Elevate returns a fresh session token when secret matches the admin hash.
func (g *Gate) Elevate(secret string) (string, error) {
	if !checkPassword(g.hash, secret) {
		return "", ErrIncorrectPassword
	}
	return createSession(g.db)
}

func (g *Gate) Revoke(token string) error {
	if token == "" {
		return nil
	}
	return deleteSession(g.db, token)
}

// Prompt is the password prompt shown under the header.
type Prompt struct {
	Open  bool
	Error string
}

// Toggle reports whether the caller should revoke the session. When not
// elevated it opens the prompt instead.
func (p *Prompt) Toggle(elevated bool) bool {
	if elevated {
		*p = Prompt{}
		return true
	}
	p.Open = true
	return false
}

// Fail keeps the prompt open with msg shown under the input.
func (p *Prompt) Fail(msg string) {
	p.Open = true
	p.Error = msg
}

func (p *Prompt) Reset() {
	*p = Prompt{}
}

func loadPrompt(s *sessions.Session) Prompt {
	open, _ := s.Values[promptOpenKey].(bool)
	msg, _ := s.Values[promptErrorKey].(string)
	return Prompt{Open: open, Error: msg}
}

func (p Prompt) store(s *sessions.Session) {
	if !p.Open && p.Error == "" {
		delete(s.Values, promptOpenKey)
		delete(s.Values, promptErrorKey)
		return
	}
	s.Values[promptOpenKey] = p.Open
	s.Values[promptErrorKey] = p.Error
}

func (c *Console) uiSession(r *http.Request) *sessions.Session {
	s, err := c.ui.Get(r, uiSessionName)
	if err != nil {
		// A stale or tampered cookie yields a fresh session.
		log.Printf("decoding ui session: %v", err)
	}
	return s
}

func (c *Console) saveUI(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if err := s.Save(r, w); err != nil {
		log.Printf("saving ui session: %v", err)
	}
}

func (c *Console) flash(w http.ResponseWriter, r *http.Request, msg string) {
	s := c.uiSession(r)
	s.AddFlash(msg)
	c.saveUI(w, r, s)
}

// ToggleAdmin revokes an elevated session at once, or opens the password prompt.
func (c *Console) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	s := c.uiSession(r)
	prompt := loadPrompt(s)

	if prompt.Toggle(c.gate.IsElevated(r)) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if err := c.gate.Revoke(cookie.Value); err != nil {
				log.Printf("revoking admin session: %v", err)
			}
		}
		clearSessionCookie(w)
	}

	prompt.store(s)
	c.saveUI(w, r, s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) Elevate(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	s := c.uiSession(r)
	prompt := loadPrompt(s)

	token, err := c.gate.Elevate(r.FormValue("password"))
	switch {
	case errors.Is(err, ErrIncorrectPassword):
		prompt.Fail(incorrectPasswordMessage)
	case err != nil:
		log.Printf("elevating session: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	default:
		setSessionCookie(w, token)
		prompt.Reset()
	}

	prompt.store(s)
	c.saveUI(w, r, s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CancelPrompt closes the prompt without touching the admin session. The
// Escape key submits the same form.
func (c *Console) CancelPrompt(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	s := c.uiSession(r)
	prompt := loadPrompt(s)
	prompt.Reset()
	prompt.store(s)
	c.saveUI(w, r, s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// requireAdmin is middleware that protects routes requiring admin mode
func (c *Console) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.gate.IsElevated(r) {
			c.flash(w, r, adminRequiredMessage)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		next(w, r)
	}
}
