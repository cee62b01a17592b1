package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new user. Returns ErrConflict if the username is taken.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, birthday, active, staff, superuser, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Birthday,
		user.Active,
		user.Staff,
		user.Superuser,
		user.JoinedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, password_hash, birthday, active, staff, superuser, joined_at,
		       spotify_access_token, spotify_refresh_token, display_name
		FROM users
		WHERE username = $1
	`
	var user User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Birthday,
		&user.Active,
		&user.Staff,
		&user.Superuser,
		&user.JoinedAt,
		&user.SpotifyAccessToken,
		&user.SpotifyRefreshToken,
		&user.DisplayName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

// UpdateSpotifyLink stores the token pair and cached display name
// obtained from the OAuth callback.
func (r *UserRepository) UpdateSpotifyLink(ctx context.Context, username, accessToken, refreshToken, displayName string) error {
	query := `
		UPDATE users
		SET spotify_access_token = $2, spotify_refresh_token = $3, display_name = $4
		WHERE username = $1
	`
	result, err := r.pool.Exec(ctx, query, username, accessToken, refreshToken, displayName)
	if err != nil {
		return fmt.Errorf("updating spotify link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAccessToken stores a freshly minted access token after a refresh.
func (r *UserRepository) UpdateAccessToken(ctx context.Context, username, accessToken string) error {
	query := `
		UPDATE users
		SET spotify_access_token = $2
		WHERE username = $1
	`
	result, err := r.pool.Exec(ctx, query, username, accessToken)
	if err != nil {
		return fmt.Errorf("updating access token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2
		WHERE username = $1
	`
	result, err := r.pool.Exec(ctx, query, username, passwordHash)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. Wraps are matched by username rather than a
// foreign key, so callers delete them through WrapStore.DeleteForUser.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM users WHERE username = $1`
	result, err := r.pool.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
