package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	adminCookieName = "campusqa_admin"
	adminSessionTTL = 12 * time.Hour
)

// sessionStore holds admin session tokens in memory. Sessions do not
// survive a restart; admins simply log in again.
type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token → expiry
	ttl    time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
	}
}

// Create issues a new session token.
func (s *sessionStore) Create() string {
	token := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.tokens[token] = time.Now().Add(s.ttl)
	return token
}

// Valid reports whether token belongs to a live session.
func (s *sessionStore) Valid(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Delete ends the session for token.
func (s *sessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// prune drops expired tokens. Caller must hold the lock.
func (s *sessionStore) prune() {
	now := time.Now()
	for token, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, token)
		}
	}
}

func setAdminCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAdminCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// adminToken extracts the session token from the request cookie.
func adminToken(r *http.Request) string {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
