// Package store provides persistence for users, sessions, and Wrapped
// snapshots, backed by PostgreSQL with in-memory implementations for
// development and testing.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// UserStore defines user persistence operations.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateSpotifyLink(ctx context.Context, username, accessToken, refreshToken, displayName string) error
	UpdateAccessToken(ctx context.Context, username, accessToken string) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	Delete(ctx context.Context, username string) error
}

// WrapStore defines Wrapped snapshot persistence operations.
// Snapshots are append-only: created once, never mutated, deleted whole.
type WrapStore interface {
	Create(ctx context.Context, wrap *Wrap) error
	GetByTimestamp(ctx context.Context, username string, createdAt time.Time) (*Wrap, error)
	DeleteByTimestamp(ctx context.Context, username string, createdAt time.Time) error
	ListByUser(ctx context.Context, username string) ([]Wrap, error)
	DeleteForUser(ctx context.Context, username string) error
}

// SessionStore defines web session persistence operations.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Wraps returns a WrapRepository.
func (db *DB) Wraps() *WrapRepository {
	return &WrapRepository{pool: db.pool}
}

// Sessions returns a SessionRepository.
func (db *DB) Sessions() *SessionRepository {
	return &SessionRepository{pool: db.pool}
}
