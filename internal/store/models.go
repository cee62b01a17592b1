package store

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Spotify tokens and the cached
// display name are nil until the account is linked through the OAuth flow.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Birthday     time.Time
	Active       bool
	Staff        bool
	Superuser    bool
	JoinedAt     time.Time

	SpotifyAccessToken  *string
	SpotifyRefreshToken *string
	DisplayName         *string
}

// Wrap is an immutable point-in-time snapshot of a user's listening
// habits. The payload is semi-structured JSON; readers must tolerate
// new optional keys. CreatedAt doubles as the lookup key the API
// exposes, with ID as the surrogate primary key underneath.
type Wrap struct {
	ID          uuid.UUID
	Username    string
	Term        string
	DisplayName string
	CreatedAt   time.Time
	Payload     []byte
}

// Session represents an authenticated web session.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
