package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// In-memory implementations, used in development and tests where a
// PostgreSQL instance is unavailable.

// MemoryUserStore is an in-memory UserStore keyed by username.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*User)}
}

// Create inserts a new user. Returns ErrConflict if the username is taken.
func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return ErrConflict
	}
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now().UTC()
	}
	clone := *user
	s.users[user.Username] = &clone
	return nil
}

// GetByUsername retrieves a user by username.
func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// UpdateSpotifyLink stores the token pair and display name.
func (s *MemoryUserStore) UpdateSpotifyLink(_ context.Context, username, accessToken, refreshToken, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	user.SpotifyAccessToken = &accessToken
	user.SpotifyRefreshToken = &refreshToken
	user.DisplayName = &displayName
	return nil
}

// UpdateAccessToken stores a refreshed access token.
func (s *MemoryUserStore) UpdateAccessToken(_ context.Context, username, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	user.SpotifyAccessToken = &accessToken
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *MemoryUserStore) UpdatePassword(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// Delete removes a user.
func (s *MemoryUserStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return ErrNotFound
	}
	delete(s.users, username)
	return nil
}

// MemoryWrapStore is an in-memory WrapStore.
type MemoryWrapStore struct {
	mu    sync.RWMutex
	wraps []Wrap
}

// NewMemoryWrapStore creates an empty in-memory wrap store.
func NewMemoryWrapStore() *MemoryWrapStore {
	return &MemoryWrapStore{}
}

// Create appends a new snapshot.
func (s *MemoryWrapStore) Create(_ context.Context, wrap *Wrap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wraps = append(s.wraps, *wrap)
	return nil
}

// GetByTimestamp retrieves a snapshot by owner and exact creation time.
func (s *MemoryWrapStore) GetByTimestamp(_ context.Context, username string, createdAt time.Time) (*Wrap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.wraps {
		if s.wraps[i].Username == username && s.wraps[i].CreatedAt.Equal(createdAt) {
			clone := s.wraps[i]
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// DeleteByTimestamp removes a single snapshot by owner and creation time.
func (s *MemoryWrapStore) DeleteByTimestamp(_ context.Context, username string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.wraps {
		if s.wraps[i].Username == username && s.wraps[i].CreatedAt.Equal(createdAt) {
			s.wraps = append(s.wraps[:i], s.wraps[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListByUser returns all snapshots for a user, newest first.
func (s *MemoryWrapStore) ListByUser(_ context.Context, username string) ([]Wrap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wraps []Wrap
	for i := range s.wraps {
		if s.wraps[i].Username == username {
			wraps = append(wraps, s.wraps[i])
		}
	}
	sort.Slice(wraps, func(i, j int) bool {
		return wraps[i].CreatedAt.After(wraps[j].CreatedAt)
	})
	return wraps, nil
}

// DeleteForUser removes all snapshots for a user.
func (s *MemoryWrapStore) DeleteForUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.wraps[:0]
	for i := range s.wraps {
		if s.wraps[i].Username != username {
			kept = append(kept, s.wraps[i])
		}
	}
	s.wraps = kept
	return nil
}

// MemorySessionStore is an in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Create inserts a new session.
func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

// Get retrieves a live session by ID.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, ErrNotFound
	}
	clone := *session
	return &clone, nil
}

// Delete removes a session by ID.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Ensure all implementations satisfy the store interfaces.
var (
	_ UserStore = (*UserRepository)(nil)
	_ UserStore = (*MemoryUserStore)(nil)

	_ WrapStore = (*WrapRepository)(nil)
	_ WrapStore = (*MemoryWrapStore)(nil)

	_ SessionStore = (*SessionRepository)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
