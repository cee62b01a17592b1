// Package web provides the HTTP server and JSON API for Cosmic Wrapped.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/cosmictunes/cosmic-wrapped/internal/store"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// Sessions manages authenticated web sessions on top of a SessionStore.
type Sessions struct {
	store store.SessionStore
}

// NewSessions creates a session manager backed by the given store.
func NewSessions(s store.SessionStore) *Sessions {
	return &Sessions{store: s}
}

// Create starts a new session for the username.
func (s *Sessions) Create(ctx context.Context, username string) (*store.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &store.Session{
		ID:        id,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// FromRequest extracts the live session from the request cookie, or nil.
func (s *Sessions) FromRequest(r *http.Request) *store.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	session, err := s.store.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

// Delete removes a session by ID.
func (s *Sessions) Delete(ctx context.Context, id string) {
	_ = s.store.Delete(ctx, id)
}

// SetCookie sets the session cookie on the response.
func (s *Sessions) SetCookie(w http.ResponseWriter, session *store.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearCookie removes the session cookie from the response.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
