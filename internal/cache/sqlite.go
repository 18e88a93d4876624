package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/five82/lectern/internal/state"
)

var _ state.Cache = (*SQLiteStore)(nil)

// SQLiteStore keeps the snapshot blob as one row of a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time keeps SQLITE_BUSY out of the picture.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		blob TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save upserts the snapshot row.
func (s *SQLiteStore) Save(ctx context.Context, snap state.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	query := `
	INSERT INTO snapshots (name, blob, saved_at)
	VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		blob = excluded.blob,
		saved_at = excluded.saved_at`
	if _, err := s.db.ExecContext(ctx, query, StorageKey, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns (nil, nil) when no snapshot row exists.
func (s *SQLiteStore) Load(ctx context.Context) (*state.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM snapshots WHERE name = ?`, StorageKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := Decode([]byte(data))
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Clear deletes the snapshot row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, StorageKey); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
