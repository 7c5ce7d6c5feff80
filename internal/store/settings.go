package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const settingJWTSecret = "jwt_secret"

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GetJWTSecret returns the token signing secret, creating it on first use.
// Concurrent first starts agree on one value: the insert is ignored when a
// row exists and the stored value is read back.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	secret, err := newSecret()
	if err != nil {
		return "", err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingJWTSecret, secret,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", settingJWTSecret, err)
	}
	return getSetting(ctx, q, settingJWTSecret)
}

// RotateJWTSecret replaces the signing secret. Every token issued so far
// stops validating.
func RotateJWTSecret(ctx context.Context, q Querier) (string, error) {
	secret, err := newSecret()
	if err != nil {
		return "", err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		settingJWTSecret, secret,
	); err != nil {
		return "", fmt.Errorf("rotating %s: %w", settingJWTSecret, err)
	}
	return secret, nil
}

func getSetting(ctx context.Context, q Querier, key string) (string, error) {
	var value string
	if err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
