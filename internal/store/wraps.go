package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WrapRepository handles Wrapped snapshot database operations.
type WrapRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new snapshot.
func (r *WrapRepository) Create(ctx context.Context, wrap *Wrap) error {
	query := `
		INSERT INTO wraps (id, username, term, display_name, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		wrap.ID,
		wrap.Username,
		wrap.Term,
		wrap.DisplayName,
		wrap.CreatedAt,
		wrap.Payload,
	)
	if err != nil {
		return fmt.Errorf("inserting wrap: %w", err)
	}
	return nil
}

// GetByTimestamp retrieves a snapshot by owner and exact creation time.
// Two snapshots created in the same instant are ambiguous; the first
// inserted wins.
func (r *WrapRepository) GetByTimestamp(ctx context.Context, username string, createdAt time.Time) (*Wrap, error) {
	query := `
		SELECT id, username, term, display_name, created_at, payload
		FROM wraps
		WHERE username = $1 AND created_at = $2
		ORDER BY id
		LIMIT 1
	`
	var wrap Wrap
	err := r.pool.QueryRow(ctx, query, username, createdAt).Scan(
		&wrap.ID,
		&wrap.Username,
		&wrap.Term,
		&wrap.DisplayName,
		&wrap.CreatedAt,
		&wrap.Payload,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying wrap: %w", err)
	}
	return &wrap, nil
}

// DeleteByTimestamp removes a single snapshot by owner and creation time.
func (r *WrapRepository) DeleteByTimestamp(ctx context.Context, username string, createdAt time.Time) error {
	query := `
		DELETE FROM wraps
		WHERE id IN (
			SELECT id FROM wraps
			WHERE username = $1 AND created_at = $2
			ORDER BY id
			LIMIT 1
		)
	`
	result, err := r.pool.Exec(ctx, query, username, createdAt)
	if err != nil {
		return fmt.Errorf("deleting wrap: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns all snapshots for a user, newest first.
func (r *WrapRepository) ListByUser(ctx context.Context, username string) ([]Wrap, error) {
	query := `
		SELECT id, username, term, display_name, created_at, payload
		FROM wraps
		WHERE username = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("listing wraps: %w", err)
	}
	defer rows.Close()

	var wraps []Wrap
	for rows.Next() {
		var wrap Wrap
		if err := rows.Scan(
			&wrap.ID,
			&wrap.Username,
			&wrap.Term,
			&wrap.DisplayName,
			&wrap.CreatedAt,
			&wrap.Payload,
		); err != nil {
			return nil, fmt.Errorf("scanning wrap: %w", err)
		}
		wraps = append(wraps, wrap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wraps: %w", err)
	}
	return wraps, nil
}

// DeleteForUser removes all snapshots for a user (account deletion).
func (r *WrapRepository) DeleteForUser(ctx context.Context, username string) error {
	query := `DELETE FROM wraps WHERE username = $1`
	_, err := r.pool.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("deleting user wraps: %w", err)
	}
	return nil
}
