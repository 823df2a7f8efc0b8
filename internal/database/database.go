// Package database owns the service SQLite database: the upload audit log
// and the API key store live in it. Domain entities (artists, releases,
// users) are persisted elsewhere by other systems; this database never
// holds them.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
-- append-only upload audit log
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,       -- unix timestamp
    action TEXT NOT NULL,
    ip_address TEXT NOT NULL,
    principal TEXT NOT NULL,
    details_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action);

-- API keys that resolve to permission sets
CREATE TABLE IF NOT EXISTS api_keys (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    key_hash TEXT NOT NULL UNIQUE,    -- BLAKE3 hash of the plaintext key
    permissions TEXT NOT NULL,        -- comma-separated permission strings
    created_at INTEGER NOT NULL
);
`

// Init opens (creating if needed) the service database at path and applies
// the schema.
func Init(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open service database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}
