package store

import (
	"context"
	"errors"
	"fmt"
)

const (
	insertCommentSQL = "INSERT INTO comments (id, comment, filehash) VALUES (?, ?, ?)"
	insertFileSQL    = "INSERT INTO files (id, filename) VALUES (?, ?)"
)

// CommitBatch inserts every record of the batch within a single
// transaction. For each file its comments are inserted first, then the
// file row. If any insert fails the whole transaction is rolled back and
// a *PersistError is returned, so the store holds either all of the batch
// or none of it.
func (s *Store) CommitBatch(ctx context.Context, batch *Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistError{Dest: s.path, Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	commentStmt, err := tx.PrepareContext(ctx, insertCommentSQL)
	if err != nil {
		return &PersistError{Dest: s.path, Err: fmt.Errorf("prepare comment insert: %w", err)}
	}
	defer commentStmt.Close()

	fileStmt, err := tx.PrepareContext(ctx, insertFileSQL)
	if err != nil {
		return &PersistError{Dest: s.path, Err: fmt.Errorf("prepare file insert: %w", err)}
	}
	defer fileStmt.Close()

	for _, rec := range batch.Records() {
		for _, c := range rec.Comments {
			if _, err := commentStmt.ExecContext(ctx, c.CommentHash, c.Text, c.FileHash); err != nil {
				return &PersistError{Dest: s.path, Err: fmt.Errorf("comment from %s: %w", rec.Path, err)}
			}
		}
		if _, err := fileStmt.ExecContext(ctx, rec.ContentHash, rec.Path); err != nil {
			return &PersistError{Dest: s.path, Err: fmt.Errorf("file %s: %w", rec.Path, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistError{Dest: s.path, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// Persist opens the store at dest, commits batch in one transaction and
// closes the connection. A commit failure is a *PersistError; a failure
// to close after a successful commit wraps ErrClose instead.
func Persist(ctx context.Context, dest string, batch *Batch) error {
	s, err := Open(dest)
	if err != nil {
		return &PersistError{Dest: dest, Err: err}
	}
	if err := s.CommitBatch(ctx, batch); err != nil {
		return errors.Join(err, s.Close())
	}
	return s.Close()
}
