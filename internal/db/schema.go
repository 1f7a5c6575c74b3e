package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The panel keeps no domain data of
// its own; everything it persists is key/value (upstream credentials,
// the cached admin profile, the session-cookie secret).
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
