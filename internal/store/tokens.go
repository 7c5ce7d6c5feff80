package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenRef identifies an issued token for revocation checks.
type TokenRef struct {
	JTI       string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevokeToken revokes a single token until it would have expired anyway.
// Expired revocations are pruned on the way.
func RevokeToken(ctx context.Context, q Querier, ref TokenRef) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, user_id, expires_at) VALUES (?, ?, ?)`,
		ref.JTI, ref.UserID, ref.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	if _, err := PruneRevokedTokens(ctx, q, time.Now()); err != nil {
		return err
	}
	return nil
}

// RevokeUserTokens revokes every token issued to userID before at. Token
// issue times have second precision, so the cutoff is truncated to match.
func RevokeUserTokens(ctx context.Context, q Querier, userID string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO token_cutoffs (user_id, not_before) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET not_before = excluded.not_before`,
		userID, at.UTC().Truncate(time.Second),
	)
	if err != nil {
		return fmt.Errorf("revoking tokens of user %s: %w", userID, err)
	}
	return nil
}

// IsTokenRevoked reports whether the token was revoked on its own or by a
// cutoff on its user.
func IsTokenRevoked(ctx context.Context, q Querier, ref TokenRef) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, ref.JTI,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	var notBefore time.Time
	err = q.QueryRowContext(ctx,
		`SELECT not_before FROM token_cutoffs WHERE user_id = ?`, ref.UserID,
	).Scan(&notBefore)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking token cutoff: %w", err)
	}
	return ref.IssuedAt.Before(notBefore), nil
}

// PruneRevokedTokens drops revocations of tokens that expired before at.
func PruneRevokedTokens(ctx context.Context, q Querier, at time.Time) (int64, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, at.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning revoked tokens: %w", err)
	}
	return result.RowsAffected()
}
