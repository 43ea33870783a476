package distiller

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/distiller/internal/runtime"
	"github.com/jward/distiller/internal/store"
)

// scanResult is what a worker reports for one file.
type scanResult struct {
	path   string
	record store.FileRecord
	counts fileCounts
	err    error
}

// scan runs the parallel pipeline:
//
//	walker:  one goroutine walks root and feeds candidate paths into jobs.
//	workers: e.workers goroutines process paths and send results.
//	drain:   the calling goroutine collects results into a Batch.
//
// jobs holds at most e.workers paths, so the walker never runs far ahead of
// the pool. results is closed once every goroutine has returned.
func (e *Engine) scan(ctx context.Context, root string, log *slog.Logger) (*store.Batch, *Stats, error) {
	start := time.Now()
	stats := &Stats{}
	log.Info("scan started", "root", root, "workers", e.workers)

	jobs := make(chan string, e.workers)
	results := make(chan scanResult, e.workers)

	g, gctx := errgroup.WithContext(ctx)

	// Only the walker writes discovered; it is read after g.Wait.
	var discovered int
	g.Go(func() error {
		defer close(jobs)
		return e.walk(gctx, root, log, func(path string) error {
			select {
			case jobs <- path:
				discovered++
				e.metrics.FileDiscovered()
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	for range e.workers {
		g.Go(func() error {
			for path := range jobs {
				rec, counts, err := e.processFile(gctx, path, log)
				select {
				case results <- scanResult{path: path, record: rec, counts: counts, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(results)
	}()

	batch := store.NewBatch(0)
	for res := range results {
		if res.err != nil {
			if ctx.Err() != nil {
				continue
			}
			stats.FilesFailed++
			e.metrics.FileFailed(failureReason(res.err))
			log.Error("could not process file", "path", res.path, "error", res.err)
			continue
		}
		batch.Add(res.record)
		stats.FilesProcessed++
		stats.CommentsRetained += res.counts.retained
		stats.CommentsDropped += res.counts.dropped
		e.metrics.FileProcessed()
		e.metrics.Comments(res.counts.retained, res.counts.dropped)
	}

	stats.FilesDiscovered = discovered
	stats.Duration = time.Since(start)

	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		log.Warn("scan cancelled", "error", waitErr, "processed", stats.FilesProcessed)
		return nil, stats, waitErr
	}

	e.metrics.ObserveScan(stats.Duration)
	log.Info("scan finished",
		"discovered", stats.FilesDiscovered,
		"processed", stats.FilesProcessed,
		"failed", stats.FilesFailed,
		"comments", stats.CommentsRetained,
		"duration", stats.Duration,
	)
	return batch, stats, nil
}

// walk visits root recursively and calls submit for every regular file
// whose extension is configured. Entries that cannot be read are skipped.
// A symlinked root is followed; symlinks inside the tree are neither
// followed nor submitted. Submitted paths are always under root as given.
// Only submit's error, or ctx being done, stops the walk.
func (e *Engine) walk(ctx context.Context, root string, log *slog.Logger, submit func(string) error) error {
	walkRoot := root
	if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			log.Debug("skipping unresolvable root", "path", root, "error", err)
			return nil
		}
		walkRoot = resolved
	}

	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if walkRoot != root {
			rel, relErr := filepath.Rel(walkRoot, path)
			if relErr == nil {
				path = filepath.Join(root, rel)
			}
		}
		if err != nil {
			log.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !e.extensions[runtime.Extension(path)] {
			return nil
		}
		return submit(path)
	})
	return err
}
