// Package wrapped builds and serves Wrapped snapshots: point-in-time
// summaries of a user's top tracks, artists, and genres plus a
// generated personality description.
package wrapped

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Spotify time ranges for top-item queries.
const (
	TermShort  = "short_term"
	TermMedium = "medium_term"
	TermLong   = "long_term"
)

// genreSampleSize is the fixed artist sample used for genre ranking,
// independent of the requested limit.
const genreSampleSize = 20

// MaxLimit caps the number of top items in a snapshot.
const MaxLimit = 50

// Sentinel errors.
var (
	// ErrNotLinked is returned when the user has no Spotify access token.
	ErrNotLinked = errors.New("user is not authenticated with spotify")

	// ErrRefreshFailed is returned when the stored refresh token could
	// not be exchanged for a new access token.
	ErrRefreshFailed = errors.New("spotify token refresh failed")

	// ErrInvalidTerm is returned for a time range outside
	// short_term/medium_term/long_term.
	ErrInvalidTerm = errors.New("invalid time range")

	// ErrInvalidLimit is returned for a non-positive or oversized limit.
	ErrInvalidLimit = errors.New("invalid limit")
)

// ValidTerm reports whether term is a recognized Spotify time range.
func ValidTerm(term string) bool {
	switch term {
	case TermShort, TermMedium, TermLong:
		return true
	}
	return false
}

// TrackRecord is the shaped form of a top track stored in a snapshot.
type TrackRecord struct {
	Name       string  `json:"name"`
	ID         string  `json:"id"`
	Album      string  `json:"album"`
	AlbumID    string  `json:"album_id"`
	Artist     string  `json:"artist"`
	ArtistID   string  `json:"artist_id"`
	Popularity int     `json:"popularity"`
	ImageURL   string  `json:"image_url"`
	PreviewURL *string `json:"preview_url"`
}

// ArtistRecord is the shaped form of a top artist stored in a snapshot.
type ArtistRecord struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	Popularity int    `json:"popularity"`
	ImageURL   string `json:"image_url"`
}

// Payload is the JSON document persisted with each snapshot. Readers
// must tolerate new optional keys.
type Payload struct {
	Tracks      []TrackRecord  `json:"tracks"`
	Artists     []ArtistRecord `json:"artists"`
	Genres      []string       `json:"genres"`
	GenreCounts map[string]int `json:"genre_counts"`
	Description string         `json:"description"`
}

// Snapshot is a freshly built Wrapped snapshot.
type Snapshot struct {
	ID          uuid.UUID
	Username    string
	Term        string
	DisplayName string
	CreatedAt   time.Time
	Payload     Payload
}
