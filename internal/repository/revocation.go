package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTokenAlreadyRevoked indicates the token id is already on the
// blacklist. A second logout with the same token surfaces this, it is
// never a silent success.
var ErrTokenAlreadyRevoked = errors.New("token already revoked")

// AddRevokedToken inserts a token id into the blacklist.
// The unique constraint on token_id is the sole arbiter of first writer
// wins: two concurrent revocations of the same id resolve to exactly
// one success and one ErrTokenAlreadyRevoked.
//
// expiresAt records when the corresponding token expires naturally, so
// the row becomes eligible for purging afterwards.
func (r *Repository) AddRevokedToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (token_id, created_at, expires_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, tokenID, time.Now().UTC(), expiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenAlreadyRevoked
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked reports whether the token id is on the blacklist.
// Queried on every authenticated request; a false negative here is a
// security bug, so errors propagate instead of defaulting to "valid".
func (r *Repository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`

	var revoked bool
	if err := r.pool.QueryRow(ctx, query, tokenID).Scan(&revoked); err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}

	return revoked, nil
}

// PurgeExpiredRevocations deletes blacklist rows whose token expiry has
// passed. Such tokens are rejected by the expiry check anyway, so the
// rows only cost storage. Returns the number of rows removed.
func (r *Repository) PurgeExpiredRevocations(ctx context.Context) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`

	tag, err := r.pool.Exec(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge revocations: %w", err)
	}

	return tag.RowsAffected(), nil
}
