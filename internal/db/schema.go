package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Text ids are UUIDs; list columns hold
// JSON arrays of URLs.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
    full_name     TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('admin', 'student')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    type           TEXT NOT NULL CHECK (type IN ('lost', 'found')),
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT 'other'
                   CHECK (category IN ('stationery', 'electronics', 'clothing', 'id_docs', 'other')),
    location       TEXT NOT NULL,
    item_date      DATETIME NOT NULL,
    image_urls     TEXT NOT NULL DEFAULT '[]',
    created_by     TEXT NOT NULL REFERENCES users(id),
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'approved', 'rejected', 'found', 'claimed', 'resolved')),
    rejection_note TEXT,
    found_by       TEXT REFERENCES users(id),
    found_location TEXT,
    found_message  TEXT,
    found_images   TEXT,
    found_at       DATETIME,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (found_by IS NULL OR (type = 'lost' AND status IN ('found', 'claimed', 'resolved')))
);

CREATE INDEX IF NOT EXISTS idx_items_status ON items(status, created_at);
CREATE INDEX IF NOT EXISTS idx_items_created_by ON items(created_by);

CREATE TABLE IF NOT EXISTS claims (
    id               TEXT PRIMARY KEY,
    item_id          TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    claimant_id      TEXT NOT NULL REFERENCES users(id),
    message          TEXT NOT NULL,
    proof_image_urls TEXT NOT NULL DEFAULT '[]',
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    rejection_note   TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- One pending claim per claimant per item.
CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_pending_claimant
    ON claims(item_id, claimant_id) WHERE status = 'pending';

-- At most one approved claim per item.
CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_approved_item
    ON claims(item_id) WHERE status = 'approved';

CREATE TABLE IF NOT EXISTS images (
    id         TEXT PRIMARY KEY,
    path       TEXT NOT NULL,
    data       BLOB NOT NULL,
    mime       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL DEFAULT '',
    expires_at DATETIME NOT NULL
);

-- Tokens issued to the user before not_before are no longer accepted.
CREATE TABLE IF NOT EXISTS token_cutoffs (
    user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    not_before DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
