package wrapped

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cosmictunes/cosmic-wrapped/internal/blurb"
	"github.com/cosmictunes/cosmic-wrapped/internal/spotify"
	"github.com/cosmictunes/cosmic-wrapped/internal/store"
)

// fakeAPI returns canned Spotify data, optionally rejecting tokens.
type fakeAPI struct {
	validToken string
	profile    spotify.Profile
	tracks     []spotify.Track
	artists    []spotify.Artist
	sample     []spotify.Artist
	err        error

	profileCalls int
	topCalls     int
}

func (f *fakeAPI) CurrentProfile(_ context.Context, token string) (*spotify.Profile, error) {
	f.profileCalls++
	if f.err != nil {
		return nil, f.err
	}
	if token != f.validToken {
		return nil, spotify.ErrUnauthorized
	}
	profile := f.profile
	return &profile, nil
}

func (f *fakeAPI) TopTracks(_ context.Context, token, _ string, limit int) ([]spotify.Track, error) {
	f.topCalls++
	if token != f.validToken {
		return nil, spotify.ErrUnauthorized
	}
	if limit > len(f.tracks) {
		limit = len(f.tracks)
	}
	return f.tracks[:limit], nil
}

func (f *fakeAPI) TopArtists(_ context.Context, token, _ string, limit int) ([]spotify.Artist, error) {
	f.topCalls++
	if token != f.validToken {
		return nil, spotify.ErrUnauthorized
	}
	if limit == genreSampleSize {
		return f.sample, nil
	}
	if limit > len(f.artists) {
		limit = len(f.artists)
	}
	return f.artists[:limit], nil
}

type fakeRefresher struct {
	token string
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Describe(_ context.Context, _ blurb.Taste) (string, error) {
	return f.text, f.err
}

func strPtr(s string) *string { return &s }

func linkedUser(t *testing.T, users store.UserStore, username, access, refresh string) {
	t.Helper()
	user := &store.User{
		ID:       uuid.New(),
		Username: username,
		Active:   true,
		Birthday: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if access != "" {
		user.SpotifyAccessToken = strPtr(access)
	}
	if refresh != "" {
		user.SpotifyRefreshToken = strPtr(refresh)
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating user: %v", err)
	}
}

func testData(n int) ([]spotify.Track, []spotify.Artist, []spotify.Artist) {
	tracks := make([]spotify.Track, n)
	artists := make([]spotify.Artist, n)
	for i := 0; i < n; i++ {
		tracks[i] = spotify.Track{
			ID:    "t" + strconv.Itoa(i),
			Name:  "Track " + strconv.Itoa(i),
			Album: spotify.Album{ID: "alb" + strconv.Itoa(i), Name: "Album " + strconv.Itoa(i)},
			Artists: []spotify.Artist{
				{ID: "a" + strconv.Itoa(i), Name: "Artist " + strconv.Itoa(i)},
			},
		}
		artists[i] = spotify.Artist{ID: "a" + strconv.Itoa(i), Name: "Artist " + strconv.Itoa(i)}
	}

	sample := make([]spotify.Artist, 0, genreSampleSize)
	addGenre := func(genre string, count int) {
		for i := 0; i < count; i++ {
			sample = append(sample, spotify.Artist{Genres: []string{genre}})
		}
	}
	addGenre("pop", 12)
	addGenre("rock", 3)
	addGenre("jazz", 1)
	for len(sample) < genreSampleSize {
		sample = append(sample, spotify.Artist{})
	}
	return tracks, artists, sample
}

func TestBuildUnlinkedUser(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "", "")

	api := &fakeAPI{}
	builder := NewBuilder(users, wraps, api, &fakeRefresher{}, &fakeGenerator{}, nil)

	_, err := builder.Build(context.Background(), "alice", TermMedium, 5)
	if !errors.Is(err, ErrNotLinked) {
		t.Fatalf("Build() error = %v, want ErrNotLinked", err)
	}

	// No Spotify calls and no snapshot rows.
	if api.profileCalls != 0 || api.topCalls != 0 {
		t.Errorf("expected no API calls, got profile=%d top=%d", api.profileCalls, api.topCalls)
	}
	list, _ := wraps.ListByUser(context.Background(), "alice")
	if len(list) != 0 {
		t.Errorf("expected 0 snapshots, got %d", len(list))
	}
}

func TestBuildSnapshotContents(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "good-token", "refresh-token")

	tracks, artists, sample := testData(10)
	api := &fakeAPI{
		validToken: "good-token",
		profile:    spotify.Profile{ID: "sp-alice", DisplayName: "Alice Star"},
		tracks:     tracks,
		artists:    artists,
		sample:     sample,
	}

	builder := NewBuilder(users, wraps, api, &fakeRefresher{}, &fakeGenerator{text: "A cosmic main character."}, nil)

	snapshot, err := builder.Build(context.Background(), "alice", TermMedium, 5)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if snapshot.Term != TermMedium {
		t.Errorf("Term = %q, want %q", snapshot.Term, TermMedium)
	}
	if snapshot.DisplayName != "Alice Star" {
		t.Errorf("DisplayName = %q, want Alice Star", snapshot.DisplayName)
	}
	if len(snapshot.Payload.Tracks) != 5 {
		t.Errorf("got %d track records, want 5", len(snapshot.Payload.Tracks))
	}
	if len(snapshot.Payload.Artists) != 5 {
		t.Errorf("got %d artist records, want 5", len(snapshot.Payload.Artists))
	}
	if snapshot.Payload.Description != "A cosmic main character." {
		t.Errorf("Description = %q", snapshot.Payload.Description)
	}

	wantGenres := []string{"pop", "rock", "jazz"}
	if len(snapshot.Payload.Genres) != len(wantGenres) {
		t.Fatalf("genres = %v, want %v", snapshot.Payload.Genres, wantGenres)
	}
	for i, g := range wantGenres {
		if snapshot.Payload.Genres[i] != g {
			t.Errorf("genres[%d] = %q, want %q", i, snapshot.Payload.Genres[i], g)
		}
	}
	if snapshot.Payload.GenreCounts["pop"] != 12 {
		t.Errorf("pop count = %d, want 12", snapshot.Payload.GenreCounts["pop"])
	}

	// The persisted row decodes to the same payload.
	stored, err := wraps.GetByTimestamp(context.Background(), "alice", snapshot.CreatedAt)
	if err != nil {
		t.Fatalf("GetByTimestamp() error = %v", err)
	}
	var decoded Payload
	if err := json.Unmarshal(stored.Payload, &decoded); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if decoded.Description != snapshot.Payload.Description {
		t.Errorf("stored description = %q", decoded.Description)
	}
	if len(decoded.Tracks) != 5 || decoded.Tracks[0].AlbumID != "alb0" {
		t.Errorf("stored tracks = %+v", decoded.Tracks)
	}
}

func TestBuildRefreshesExpiredToken(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "stale-token", "refresh-token")

	tracks, artists, sample := testData(5)
	api := &fakeAPI{
		validToken: "fresh-token",
		profile:    spotify.Profile{DisplayName: "Alice"},
		tracks:     tracks,
		artists:    artists,
		sample:     sample,
	}
	refresher := &fakeRefresher{token: "fresh-token"}

	builder := NewBuilder(users, wraps, api, refresher, &fakeGenerator{}, nil)

	if _, err := builder.Build(context.Background(), "alice", TermShort, 3); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if refresher.calls != 1 {
		t.Errorf("refresher calls = %d, want 1", refresher.calls)
	}
	user, _ := users.GetByUsername(context.Background(), "alice")
	if user.SpotifyAccessToken == nil || *user.SpotifyAccessToken != "fresh-token" {
		t.Errorf("stored access token = %v, want fresh-token", user.SpotifyAccessToken)
	}
}

func TestBuildRefreshFailure(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "stale-token", "refresh-token")

	api := &fakeAPI{validToken: "other"}
	refresher := &fakeRefresher{err: errors.New("invalid_grant")}

	builder := NewBuilder(users, wraps, api, refresher, &fakeGenerator{}, nil)

	_, err := builder.Build(context.Background(), "alice", TermLong, 5)
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Build() error = %v, want ErrRefreshFailed", err)
	}

	list, _ := wraps.ListByUser(context.Background(), "alice")
	if len(list) != 0 {
		t.Errorf("expected 0 snapshots, got %d", len(list))
	}
}

func TestBuildNoRefreshTokenStored(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "stale-token", "")

	api := &fakeAPI{validToken: "other"}
	builder := NewBuilder(users, wraps, api, &fakeRefresher{token: "unused"}, &fakeGenerator{}, nil)

	_, err := builder.Build(context.Background(), "alice", TermShort, 5)
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Build() error = %v, want ErrRefreshFailed", err)
	}
}

func TestBuildDescriptionFailureIsLenient(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "good-token", "refresh-token")

	tracks, artists, sample := testData(5)
	api := &fakeAPI{
		validToken: "good-token",
		profile:    spotify.Profile{DisplayName: "Alice"},
		tracks:     tracks,
		artists:    artists,
		sample:     sample,
	}

	builder := NewBuilder(users, wraps, api, &fakeRefresher{}, &fakeGenerator{err: errors.New("model timeout")}, nil)

	snapshot, err := builder.Build(context.Background(), "alice", TermMedium, 5)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if snapshot.Payload.Description != "" {
		t.Errorf("Description = %q, want empty", snapshot.Payload.Description)
	}

	list, _ := wraps.ListByUser(context.Background(), "alice")
	if len(list) != 1 {
		t.Errorf("expected snapshot to be saved, got %d", len(list))
	}
}

func TestBuildUpstreamFailureSavesNothing(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "good-token", "refresh-token")

	api := &fakeAPI{err: spotify.ErrUpstream}
	builder := NewBuilder(users, wraps, api, &fakeRefresher{}, &fakeGenerator{}, nil)

	_, err := builder.Build(context.Background(), "alice", TermMedium, 5)
	if !errors.Is(err, spotify.ErrUpstream) {
		t.Fatalf("Build() error = %v, want ErrUpstream", err)
	}

	list, _ := wraps.ListByUser(context.Background(), "alice")
	if len(list) != 0 {
		t.Errorf("expected 0 snapshots, got %d", len(list))
	}
}

func TestBuildValidation(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	builder := NewBuilder(users, wraps, &fakeAPI{}, &fakeRefresher{}, nil, nil)

	tests := []struct {
		name    string
		term    string
		limit   int
		wantErr error
	}{
		{name: "bad term", term: "yearly", limit: 5, wantErr: ErrInvalidTerm},
		{name: "zero limit", term: TermShort, limit: 0, wantErr: ErrInvalidLimit},
		{name: "negative limit", term: TermShort, limit: -1, wantErr: ErrInvalidLimit},
		{name: "oversized limit", term: TermShort, limit: MaxLimit + 1, wantErr: ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builder.Build(context.Background(), "alice", tt.term, tt.limit)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildTimestampPrecision(t *testing.T) {
	users := store.NewMemoryUserStore()
	wraps := store.NewMemoryWrapStore()
	linkedUser(t, users, "alice", "good-token", "refresh-token")

	tracks, artists, sample := testData(3)
	api := &fakeAPI{
		validToken: "good-token",
		profile:    spotify.Profile{DisplayName: "Alice"},
		tracks:     tracks,
		artists:    artists,
		sample:     sample,
	}

	builder := NewBuilder(users, wraps, api, &fakeRefresher{}, nil, nil)
	builder.NowFunc = func() time.Time {
		return time.Date(2026, 9, 1, 12, 30, 45, 123456789, time.UTC)
	}

	snapshot, err := builder.Build(context.Background(), "alice", TermMedium, 3)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Truncated to microseconds so the value round-trips through
	// timestamptz and the RFC3339Nano API parameter.
	if snapshot.CreatedAt.Nanosecond()%1000 != 0 {
		t.Errorf("CreatedAt %v not truncated to microseconds", snapshot.CreatedAt)
	}

	formatted := snapshot.CreatedAt.Format(time.RFC3339Nano)
	parsed, err := time.Parse(time.RFC3339Nano, formatted)
	if err != nil {
		t.Fatalf("reparsing timestamp: %v", err)
	}
	if !parsed.Equal(snapshot.CreatedAt) {
		t.Errorf("timestamp %v does not round-trip (%v)", snapshot.CreatedAt, parsed)
	}
}
