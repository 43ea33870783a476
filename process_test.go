package distiller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/distiller/internal/metrics"
	"github.com/jward/distiller/internal/runtime"
	"github.com/jward/distiller/internal/store"
)

var discard = slog.New(slog.DiscardHandler)

func TestProcessFile_BuildsRecord(t *testing.T) {
	t.Parallel()
	content := "/* hello world */\nint main(void) { return 0; } // end\n"
	path := filepath.Join(writeTree(t, map[string]string{"main.c": content}), "main.c")

	rec, counts, err := newTestEngine(t).processFile(context.Background(), path, discard)
	require.NoError(t, err)

	assert.Equal(t, path, rec.Path)
	assert.Equal(t, store.ComputeHash([]byte(content)), rec.ContentHash)
	require.Len(t, rec.Comments, 1)
	assert.Equal(t, store.NewCommentRecord("hello world", rec.ContentHash), rec.Comments[0])
	assert.Equal(t, fileCounts{retained: 1, dropped: 1}, counts)
}

func TestProcessFile_MissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "vanished.c")

	e := newTestEngine(t)
	reads := 0
	e.readFile = func(p string) ([]byte, error) {
		reads++
		return os.ReadFile(p)
	}

	rec, _, err := e.processFile(context.Background(), path, discard)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, path, procErr.Path)

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, path, readErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 1, reads, "missing files are not retried")
	assert.Empty(t, rec.ContentHash, "no partial record")
}

func TestProcessFile_UnsupportedSyntax(t *testing.T) {
	t.Parallel()
	path := filepath.Join(writeTree(t, map[string]string{"notes.md": "<!-- hi there -->"}), "notes.md")

	_, _, err := newTestEngine(t).processFile(context.Background(), path, discard)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.ErrorIs(t, err, ErrUnsupportedSyntax)
}

func TestProcessFile_RuleLookupFailureAfterRead(t *testing.T) {
	t.Parallel()
	path := filepath.Join(writeTree(t, map[string]string{"a.c": "/* hello world */"}), "a.c")

	e := newTestEngine(t)
	e.rulesFor = func(p string) (*runtime.RuleSet, error) {
		return nil, fmt.Errorf("%w: %s", runtime.ErrUnsupportedSyntax, p)
	}

	_, _, err := e.processFile(context.Background(), path, discard)
	assert.ErrorIs(t, err, ErrUnsupportedSyntax)
	assert.Equal(t, metrics.ReasonUnsupported, failureReason(err))
}

func TestProcessFile_EmptyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(writeTree(t, map[string]string{"empty.h": ""}), "empty.h")

	rec, counts, err := newTestEngine(t).processFile(context.Background(), path, discard)
	require.NoError(t, err)
	assert.Equal(t, store.ComputeHash(nil), rec.ContentHash)
	assert.Empty(t, rec.Comments)
	assert.Zero(t, counts)
}

func TestDecodeLossy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("plain ascii"), "plain ascii"},
		{[]byte("héllo"), "héllo"},
		{[]byte("a\xffb"), "a\uFFFDb"},
		{[]byte("\xff\xfe"), "\uFFFD\uFFFD"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeLossy(tt.in), "input %q", tt.in)
	}
}

func TestFailureReason(t *testing.T) {
	t.Parallel()

	read := &ProcessingError{Path: "a.c", Err: &ReadError{Path: "a.c", Err: fs.ErrPermission}}
	unsupported := &ProcessingError{Path: "a.txt", Err: fmt.Errorf("%w: a.txt", ErrUnsupportedSyntax)}
	extract := &ProcessingError{Path: "a.c", Err: errors.New("filter: boom")}

	assert.Equal(t, metrics.ReasonRead, failureReason(read))
	assert.Equal(t, metrics.ReasonUnsupported, failureReason(unsupported))
	assert.Equal(t, metrics.ReasonExtract, failureReason(extract))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	err := &ProcessingError{Path: "a.c", Err: &ReadError{Path: "a.c", Err: errors.New("boom")}}
	assert.Equal(t, "process a.c: read a.c: boom", err.Error())
}
