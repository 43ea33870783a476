package distiller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/jward/distiller/internal/runtime"
	"github.com/jward/distiller/internal/store"
)

// fileCounts tallies what happened to one file's comments.
type fileCounts struct {
	retained int
	dropped  int
}

// processFile turns one path into a FileRecord: read the bytes, hash them,
// decode them as text, look up the comment rules and extract. A record is
// either returned whole or not at all; every failure is a *ProcessingError.
func (e *Engine) processFile(ctx context.Context, path string, log *slog.Logger) (store.FileRecord, fileCounts, error) {
	var counts fileCounts

	log.Debug("reading", "path", path)
	data, err := retryWithBackoff(ctx, e.retry, isTransientReadError, func() ([]byte, error) {
		return e.readFile(path)
	})
	if err != nil {
		return store.FileRecord{}, counts, &ProcessingError{Path: path, Err: &ReadError{Path: path, Err: err}}
	}

	// The hash covers the raw bytes so it never depends on decoding.
	hash := store.ComputeHash(data)
	text := decodeLossy(data)

	rules, err := e.rulesFor(path)
	if err != nil {
		return store.FileRecord{}, counts, &ProcessingError{Path: path, Err: err}
	}

	rec := store.FileRecord{Path: path, ContentHash: hash}
	for c, err := range runtime.Extract(ctx, text, rules) {
		if err != nil {
			return store.FileRecord{}, counts, &ProcessingError{Path: path, Err: fmt.Errorf("extract: %w", err)}
		}
		if len(c.Text) < e.minCommentLength {
			counts.dropped++
			continue
		}
		if e.filter != nil {
			keep, err := e.filter.Keep(ctx, c, path, rules.Language)
			if err != nil {
				return store.FileRecord{}, counts, &ProcessingError{Path: path, Err: fmt.Errorf("filter: %w", err)}
			}
			if !keep {
				counts.dropped++
				continue
			}
		}
		rec.Comments = append(rec.Comments, store.NewCommentRecord(c.Text, hash))
		counts.retained++
	}

	log.Debug("extracted comments", "path", path, "retained", counts.retained, "dropped", counts.dropped)
	return rec, counts, nil
}

// decodeLossy decodes data as UTF-8, replacing each invalid byte with
// U+FFFD. It never fails.
func decodeLossy(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(out)
}
