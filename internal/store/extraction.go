package store

import (
	"context"
	"fmt"
)

// Files returns every persisted file row ordered by path. Comments are
// not populated; use CommentsByFileHash to follow the back-reference.
func (s *Store) Files(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, filename FROM files ORDER BY filename, id")
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ContentHash, &f.Path); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Comments returns every persisted comment row in insertion order.
func (s *Store) Comments(ctx context.Context) ([]CommentRecord, error) {
	return s.queryComments(ctx, "SELECT id, comment, filehash FROM comments ORDER BY rowid")
}

// CommentsByFileHash returns the comments whose filehash equals fileHash,
// in insertion order.
func (s *Store) CommentsByFileHash(ctx context.Context, fileHash string) ([]CommentRecord, error) {
	return s.queryComments(ctx,
		"SELECT id, comment, filehash FROM comments WHERE filehash = ? ORDER BY rowid", fileHash)
}

func (s *Store) queryComments(ctx context.Context, query string, args ...any) ([]CommentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []CommentRecord
	for rows.Next() {
		var c CommentRecord
		if err := rows.Scan(&c.CommentHash, &c.Text, &c.FileHash); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
