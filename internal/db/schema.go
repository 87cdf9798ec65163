package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Statements are idempotent so EnsureSchema
// can run on every start.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL COLLATE NOCASE,
    full_name     TEXT,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('hod', 'engineer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS stocks (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL COLLATE NOCASE,
    quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    is_emergency INTEGER NOT NULL DEFAULT 0,
    photo        BLOB,
    photo_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_stocks_name_active
    ON stocks(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS personal_stocks (
    engineer_id INTEGER NOT NULL REFERENCES users(id),
    stock_id    INTEGER NOT NULL REFERENCES stocks(id),
    quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    PRIMARY KEY (engineer_id, stock_id)
);

CREATE TABLE IF NOT EXISTS requests (
    id             INTEGER PRIMARY KEY,
    engineer_id    INTEGER NOT NULL REFERENCES users(id),
    stock_id       INTEGER REFERENCES stocks(id),
    emergency_text TEXT,
    quantity       INTEGER NOT NULL CHECK (quantity > 0),
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'approved', 'denied', 'dispatched', 'received')),
    docket_number  TEXT,
    hod_comment    TEXT,
    remarks        TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((stock_id IS NULL) != (emergency_text IS NULL))
);

CREATE TABLE IF NOT EXISTS usage_records (
    id            INTEGER PRIMARY KEY,
    engineer_id   INTEGER NOT NULL REFERENCES users(id),
    stock_name    TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    site_name     TEXT,
    reason        TEXT,
    contract_type TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
