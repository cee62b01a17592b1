package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserStore()

	user := &User{
		ID:       uuid.New(),
		Username: "alice",
		Active:   true,
		Birthday: time.Date(2000, 5, 20, 0, 0, 0, 0, time.UTC),
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Duplicate usernames conflict.
	if err := users.Create(ctx, &User{ID: uuid.New(), Username: "alice"}); !errors.Is(err, ErrConflict) {
		t.Errorf("Create(duplicate) error = %v, want ErrConflict", err)
	}

	got, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.SpotifyAccessToken != nil {
		t.Errorf("new user should have no access token")
	}

	if err := users.UpdateSpotifyLink(ctx, "alice", "access", "refresh", "Alice Star"); err != nil {
		t.Fatalf("UpdateSpotifyLink() error = %v", err)
	}
	got, _ = users.GetByUsername(ctx, "alice")
	if got.SpotifyAccessToken == nil || *got.SpotifyAccessToken != "access" {
		t.Errorf("access token = %v, want access", got.SpotifyAccessToken)
	}
	if got.DisplayName == nil || *got.DisplayName != "Alice Star" {
		t.Errorf("display name = %v, want Alice Star", got.DisplayName)
	}

	if err := users.UpdateAccessToken(ctx, "alice", "access2"); err != nil {
		t.Fatalf("UpdateAccessToken() error = %v", err)
	}
	got, _ = users.GetByUsername(ctx, "alice")
	if *got.SpotifyAccessToken != "access2" {
		t.Errorf("access token = %q, want access2", *got.SpotifyAccessToken)
	}
	if *got.SpotifyRefreshToken != "refresh" {
		t.Errorf("refresh token = %q, want refresh untouched", *got.SpotifyRefreshToken)
	}

	if err := users.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := users.GetByUsername(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUsername(deleted) error = %v, want ErrNotFound", err)
	}
	if err := users.Delete(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}

	if err := users.UpdateSpotifyLink(ctx, "nobody", "a", "r", "d"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSpotifyLink(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryWrapStore(t *testing.T) {
	ctx := context.Background()
	wraps := NewMemoryWrapStore()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i, username := range []string{"alice", "alice", "bob"} {
		wrap := &Wrap{
			ID:        uuid.New(),
			Username:  username,
			Term:      "medium_term",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Payload:   []byte(`{"genres":[]}`),
		}
		if err := wraps.Create(ctx, wrap); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	// Exact-timestamp lookup.
	got, err := wraps.GetByTimestamp(ctx, "alice", base)
	if err != nil {
		t.Fatalf("GetByTimestamp() error = %v", err)
	}
	if string(got.Payload) != `{"genres":[]}` {
		t.Errorf("payload = %s", got.Payload)
	}

	// A timestamp that was never created misses.
	if _, err := wraps.GetByTimestamp(ctx, "alice", base.Add(time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByTimestamp(miss) error = %v, want ErrNotFound", err)
	}

	// Another user's timestamp misses.
	if _, err := wraps.GetByTimestamp(ctx, "bob", base); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByTimestamp(wrong user) error = %v, want ErrNotFound", err)
	}

	// Listing is newest first.
	list, err := wraps.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d wraps, want 2", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Errorf("list not descending: %v, %v", list[0].CreatedAt, list[1].CreatedAt)
	}

	// Deleting removes exactly one record; others survive.
	if err := wraps.DeleteByTimestamp(ctx, "alice", base); err != nil {
		t.Fatalf("DeleteByTimestamp() error = %v", err)
	}
	if err := wraps.DeleteByTimestamp(ctx, "alice", base); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	list, _ = wraps.ListByUser(ctx, "alice")
	if len(list) != 1 {
		t.Errorf("alice has %d wraps, want 1", len(list))
	}
	bobs, _ := wraps.ListByUser(ctx, "bob")
	if len(bobs) != 1 {
		t.Errorf("bob has %d wraps, want 1 untouched", len(bobs))
	}

	// Account deletion removes all of a user's wraps.
	if err := wraps.DeleteForUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteForUser() error = %v", err)
	}
	list, _ = wraps.ListByUser(ctx, "alice")
	if len(list) != 0 {
		t.Errorf("alice has %d wraps after account deletion", len(list))
	}
	bobs, _ = wraps.ListByUser(ctx, "bob")
	if len(bobs) != 1 {
		t.Errorf("bob has %d wraps, want 1", len(bobs))
	}
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemorySessionStore()

	now := time.Now()
	live := &Session{ID: "live", Username: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &Session{ID: "expired", Username: "alice", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}

	for _, s := range []*Session{live, expired} {
		if err := sessions.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if _, err := sessions.Get(ctx, "live"); err != nil {
		t.Errorf("Get(live) error = %v", err)
	}
	if _, err := sessions.Get(ctx, "expired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrNotFound", err)
	}

	if err := sessions.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := sessions.Get(ctx, "live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
}
