package wrapped

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cosmictunes/cosmic-wrapped/internal/blurb"
	"github.com/cosmictunes/cosmic-wrapped/internal/spotify"
	"github.com/cosmictunes/cosmic-wrapped/internal/store"
)

// SpotifyAPI abstracts the Spotify Web API client for testing.
type SpotifyAPI interface {
	CurrentProfile(ctx context.Context, accessToken string) (*spotify.Profile, error)
	TopTracks(ctx context.Context, accessToken, timeRange string, limit int) ([]spotify.Track, error)
	TopArtists(ctx context.Context, accessToken, timeRange string, limit int) ([]spotify.Artist, error)
}

// TokenRefresher abstracts the refresh-token grant for testing.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Builder runs the snapshot generation pipeline: probe the profile,
// refresh the access token if Spotify rejects it, fetch top items,
// shape them, attach a description, and persist the result.
type Builder struct {
	users     store.UserStore
	wraps     store.WrapStore
	api       SpotifyAPI
	refresher TokenRefresher
	blurbs    blurb.Generator
	logger    *log.Logger

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewBuilder creates a Builder. A nil blurbs generator skips the
// description entirely.
func NewBuilder(users store.UserStore, wraps store.WrapStore, api SpotifyAPI, refresher TokenRefresher, blurbs blurb.Generator, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		users:     users,
		wraps:     wraps,
		api:       api,
		refresher: refresher,
		blurbs:    blurbs,
		logger:    logger,
	}
}

// Build generates and persists a snapshot for the user. No partial
// snapshot is saved: any Spotify failure aborts the whole build. A
// description failure does not abort; the snapshot saves with an empty
// description.
func (b *Builder) Build(ctx context.Context, username, term string, limit int) (*Snapshot, error) {
	if !ValidTerm(term) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTerm, term)
	}
	if limit <= 0 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	user, err := b.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user.SpotifyAccessToken == nil || *user.SpotifyAccessToken == "" {
		return nil, ErrNotLinked
	}
	token := *user.SpotifyAccessToken

	profile, err := b.api.CurrentProfile(ctx, token)
	if errors.Is(err, spotify.ErrUnauthorized) {
		token, err = b.refreshToken(ctx, user)
		if err != nil {
			return nil, err
		}
		profile, err = b.api.CurrentProfile(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	displayName := profile.DisplayName
	if displayName == "" {
		displayName = "Unknown User"
	}

	tracks, err := b.api.TopTracks(ctx, token, term, limit)
	if err != nil {
		return nil, err
	}
	artists, err := b.api.TopArtists(ctx, token, term, limit)
	if err != nil {
		return nil, err
	}
	sample, err := b.api.TopArtists(ctx, token, term, genreSampleSize)
	if err != nil {
		return nil, err
	}

	payload := Payload{
		Tracks:  shapeTracks(tracks),
		Artists: shapeArtists(artists),
	}
	payload.GenreCounts, payload.Genres = rankGenres(sample)
	payload.Description = b.describe(ctx, payload)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	// timestamptz keeps microseconds; truncate so the stored value
	// round-trips through the timestamp-addressed API.
	snapshot := &Snapshot{
		ID:          uuid.New(),
		Username:    username,
		Term:        term,
		DisplayName: displayName,
		CreatedAt:   b.now().UTC().Truncate(time.Microsecond),
		Payload:     payload,
	}

	wrap := &store.Wrap{
		ID:          snapshot.ID,
		Username:    snapshot.Username,
		Term:        snapshot.Term,
		DisplayName: snapshot.DisplayName,
		CreatedAt:   snapshot.CreatedAt,
		Payload:     encoded,
	}
	if err := b.wraps.Create(ctx, wrap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return snapshot, nil
}

// refreshToken exchanges the stored refresh token for a new access
// token and persists it.
func (b *Builder) refreshToken(ctx context.Context, user *store.User) (string, error) {
	if user.SpotifyRefreshToken == nil || *user.SpotifyRefreshToken == "" {
		return "", ErrRefreshFailed
	}

	token, err := b.refresher.Refresh(ctx, *user.SpotifyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	if err := b.users.UpdateAccessToken(ctx, user.Username, token); err != nil {
		return "", fmt.Errorf("persisting refreshed token: %w", err)
	}

	b.logger.Info("refreshed spotify access token", "username", user.Username)
	return token, nil
}

// describe generates the personality description. Failures are logged
// and yield an empty description rather than aborting the build.
func (b *Builder) describe(ctx context.Context, payload Payload) string {
	if b.blurbs == nil {
		return ""
	}

	taste := blurb.Taste{
		Tracks:  make([]string, 0, len(payload.Tracks)),
		Artists: make([]string, 0, len(payload.Artists)),
		Genres:  payload.Genres,
	}
	for _, t := range payload.Tracks {
		taste.Tracks = append(taste.Tracks, t.Name)
	}
	for _, a := range payload.Artists {
		taste.Artists = append(taste.Artists, a.Name)
	}

	description, err := b.blurbs.Describe(ctx, taste)
	if err != nil {
		b.logger.Warn("description generation failed", "error", err)
		return ""
	}
	return description
}

func (b *Builder) now() time.Time {
	if b.NowFunc != nil {
		return b.NowFunc()
	}
	return time.Now()
}
