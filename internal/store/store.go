package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Store is the SQLite data access layer for the files and comments tables.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if necessary) a SQLite database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; the whole scan is committed by a single goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Open opens an existing store previously created by Setup.
func Open(dbPath string) (*Store, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open database: %s is a directory", dbPath)
	}
	return NewStore(dbPath)
}

// Close closes the underlying database connection. A failure wraps ErrClose.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrClose, err)
	}
	return nil
}

// Migrate creates both tables and the back-reference index inside one
// transaction, so a failure leaves no partial schema. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}

// No foreign keys: comments.filehash is a lookup key into files.id, and
// the same file content may appear at many paths.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS comments (
  id        TEXT NOT NULL CHECK (id <> ''),
  comment   TEXT NOT NULL,
  filehash  TEXT NOT NULL CHECK (filehash <> '')
);

CREATE TABLE IF NOT EXISTS files (
  id        TEXT NOT NULL CHECK (id <> ''),
  filename  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_filehash ON comments(filehash);
`

// Setup recreates the store at dest from scratch: any prior artifact is
// removed (a missing one is fine), a fresh database is created with the
// schema, and the connection is closed. On failure the destination is
// removed again so no partial schema is left behind.
func Setup(ctx context.Context, dest string) error {
	if err := removeArtifacts(dest); err != nil {
		return &SetupError{Dest: dest, Err: err}
	}

	s, err := NewStore(dest)
	if err != nil {
		_ = removeArtifacts(dest)
		return &SetupError{Dest: dest, Err: err}
	}
	if err := s.Migrate(ctx); err != nil {
		s.db.Close()
		_ = removeArtifacts(dest)
		return &SetupError{Dest: dest, Err: err}
	}
	if err := s.Close(); err != nil {
		_ = removeArtifacts(dest)
		return &SetupError{Dest: dest, Err: err}
	}
	return nil
}

// removeArtifacts deletes dest and the SQLite side files next to it.
// A directory at dest is never removed.
func removeArtifacts(dest string) error {
	if info, err := os.Lstat(dest); err == nil && info.IsDir() {
		return fmt.Errorf("remove prior artifact: %s is a directory", dest)
	}
	for _, p := range []string{dest, dest + "-journal", dest + "-wal", dest + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove prior artifact: %w", err)
		}
	}
	return nil
}

// Counts returns the number of rows in the files and comments tables.
func (s *Store) Counts(ctx context.Context) (files, comments int, err error) {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&files); err != nil {
		return 0, 0, fmt.Errorf("count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&comments); err != nil {
		return 0, 0, fmt.Errorf("count comments: %w", err)
	}
	return files, comments, nil
}
