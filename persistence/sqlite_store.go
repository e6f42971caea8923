package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps players and world seeds in a single SQLite file
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{sqlStore{db: db, rebind: questionMarks}}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (ss *SQLiteStore) initSchema() error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			icon TEXT NOT NULL,
			color TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS world_seeds (
			name TEXT PRIMARY KEY,
			offset_x INTEGER NOT NULL,
			offset_y INTEGER NOT NULL,
			offset_z INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := ss.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
