package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to Postgres when databaseURL is set and otherwise to the
// SQLite file medmais.db under dataDir.
func Open(databaseURL, dataDir string) (*sql.DB, Dialect, error) {
	if databaseURL != "" {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open postgres: %w", err)
		}
		return db, Postgres, nil
	}

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, "", fmt.Errorf("failed to create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "medmais.db")
	slog.Info("lite mode: using sqlite", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, "", fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite serialises writers.
	db.SetMaxOpenConns(1)
	return db, SQLite, nil
}
