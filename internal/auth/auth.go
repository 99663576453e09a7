// Package auth checks admin credentials and signs session cookies.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SessionCookieName names the admin session cookie.
const SessionCookieName = "hagaki_session"

// Service validates admin users and issues session cookies.
type Service struct {
	db            *sql.DB
	sessionSecret []byte
}

// NewService returns a Service signing sessions with sessionSecret.
// An empty secret disables sessions: no cookie ever authenticates.
func NewService(db *sql.DB, sessionSecret string) *Service {
	return &Service{db: db, sessionSecret: []byte(sessionSecret)}
}

// SessionsEnabled reports whether a signing secret is configured.
func (s *Service) SessionsEnabled() bool {
	return len(s.sessionSecret) > 0
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ValidateCredentials reports whether email and password match a stored user.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (bool, error) {
	var passwordHash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user credentials: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password hash: %w", err)
	}
	return true, nil
}

func (s *Service) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (s *Service) createSessionValue(email string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(email))
	return payload + "." + hex.EncodeToString(s.sign(payload))
}

func (s *Service) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, s.sign(payload)) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}

	return string(decoded), true
}

// SetSessionCookie starts an admin session for email.
func (s *Service) SetSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.createSessionValue(email),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie ends the admin session.
func (s *Service) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticated reports whether the request carries a valid session cookie.
func (s *Service) Authenticated(r *http.Request) bool {
	if !s.SessionsEnabled() {
		return false
	}
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}

	_, ok := s.verifySessionValue(cookie.Value)
	return ok
}

// RequireSession rejects requests without a valid session with 401.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Authenticated(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
