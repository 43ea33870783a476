package distiller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jward/distiller/internal/metrics"
	"github.com/jward/distiller/internal/runtime"
	"github.com/jward/distiller/internal/store"
)

// Engine orchestrates a distiller run: store setup, directory scan with a
// bounded worker pool, and the single-transaction persist. An Engine holds
// no per-run state and may run several scans, one after another or
// concurrently.
type Engine struct {
	workers          int
	extensions       map[string]bool
	minCommentLength int
	retry            RetryConfig

	filterPath   string
	filterSource string
	filterFS     fs.FS
	filter       *runtime.Runtime

	logger  *slog.Logger
	metrics *metrics.Metrics

	// Seams for tests.
	readFile func(string) ([]byte, error)
	rulesFor func(string) (*runtime.RuleSet, error)
}

// Stats summarizes one scan.
type Stats struct {
	FilesDiscovered  int
	FilesProcessed   int
	FilesFailed      int
	CommentsRetained int
	CommentsDropped  int
	Duration         time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker pool size. Zero or less means one worker per
// available CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLogger sets the logger for progress and per-file failures. The
// default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExtensions replaces the set of file extensions (without the dot,
// case-sensitive) submitted for processing. An extension with no comment
// rule-set still gets submitted; those files fail with
// ErrUnsupportedSyntax and are skipped.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			e.extensions[ext] = true
		}
	}
}

// WithMinCommentLength sets the byte length below which extracted comments
// are dropped. The default is 5.
func WithMinCommentLength(n int) Option {
	return func(e *Engine) {
		e.minCommentLength = n
	}
}

// WithFilterScript loads a Risor filter script from path. The script is
// evaluated for every comment that passes the length filter.
func WithFilterScript(path string) Option {
	return func(e *Engine) {
		e.filterPath = path
	}
}

// WithFilterFS is WithFilterScript with path resolved inside fsys, and
// the script's imports resolved against fsys as well.
func WithFilterFS(fsys fs.FS, path string) Option {
	return func(e *Engine) {
		e.filterFS = fsys
		e.filterPath = path
	}
}

// WithFilterSource is WithFilterScript for inline Risor source.
func WithFilterSource(src string) Option {
	return func(e *Engine) {
		e.filterSource = src
	}
}

// WithMetrics records scan metrics into m instead of a private instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithReadRetry sets the retry policy for transient read failures.
func WithReadRetry(cfg RetryConfig) Option {
	return func(e *Engine) {
		e.retry = cfg
	}
}

// New creates an Engine. Options are validated and a filter script, if
// any, is loaded here so a bad script fails before any work is done.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		minCommentLength: 5,
		retry:            DefaultRetryConfig(),
		logger:           slog.New(slog.DiscardHandler),
		readFile:         os.ReadFile,
		rulesFor:         runtime.RulesFor,
	}
	WithExtensions(runtime.DefaultExtensions...)(e)
	for _, opt := range opts {
		opt(e)
	}

	if e.workers <= 0 {
		e.workers = goruntime.NumCPU()
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	if e.minCommentLength < 0 {
		return nil, fmt.Errorf("distiller: min comment length must be >= 0, got %d", e.minCommentLength)
	}
	if e.retry.MaxRetries < 0 {
		return nil, fmt.Errorf("distiller: read retries must be >= 0, got %d", e.retry.MaxRetries)
	}
	if len(e.extensions) == 0 {
		return nil, errors.New("distiller: no extensions configured")
	}
	for ext := range e.extensions {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("distiller: invalid extension %q", ext)
		}
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger)}
	if e.filterFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.filterFS))
	}
	var err error
	switch {
	case e.filterPath != "":
		e.filter, err = runtime.LoadFilter(e.filterPath, rtOpts...)
	case e.filterSource != "":
		e.filter, err = runtime.NewFilter(e.filterSource, rtOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("distiller: filter script: %w", err)
	}

	return e, nil
}

// Metrics returns the collectors this Engine records into.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Workers returns the worker pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// runLogger tags every log line of one run with a fresh run_id.
func (e *Engine) runLogger() *slog.Logger {
	return e.logger.With("run_id", uuid.NewString())
}

// Setup removes any previous store at dest and creates an empty one with
// the files and comments tables. Failures are *SetupError.
func (e *Engine) Setup(ctx context.Context, dest string) error {
	return e.setup(ctx, dest, e.runLogger())
}

func (e *Engine) setup(ctx context.Context, dest string, log *slog.Logger) error {
	log.Info("setting up store", "dest", dest, "driver", store.DriverName, "build", store.BuildMode)
	if err := store.Setup(ctx, dest); err != nil {
		log.Error("setup failed", "dest", dest, "error", err)
		return err
	}
	return nil
}

// Scan walks root and processes every supported file on the worker pool.
// Files that cannot be processed are logged and left out. Records arrive
// in completion order, not walk order. Scan fails only when ctx is done.
func (e *Engine) Scan(ctx context.Context, root string) ([]FileRecord, *Stats, error) {
	batch, stats, err := e.scan(ctx, root, e.runLogger())
	if err != nil {
		return nil, stats, err
	}
	return batch.Records(), stats, nil
}

// Persist stores records at dest, which must have been set up, in a single
// transaction. Either every row is committed or none is. Failures are
// *PersistError, or wrap ErrClose if only closing the store failed.
func (e *Engine) Persist(ctx context.Context, records []FileRecord, dest string) error {
	batch := store.NewBatch(len(records))
	for _, rec := range records {
		batch.Add(rec)
	}
	return e.persist(ctx, batch, dest, e.runLogger())
}

func (e *Engine) persist(ctx context.Context, batch *store.Batch, dest string, log *slog.Logger) error {
	log.Info("committing", "dest", dest, "files", batch.Len(), "comments", batch.CommentCount())
	if err := store.Persist(ctx, dest, batch); err != nil {
		log.Error("persist failed", "dest", dest, "error", err)
		return err
	}
	e.metrics.RowsPersisted("files", batch.Len())
	e.metrics.RowsPersisted("comments", batch.CommentCount())
	log.Info("persisted", "dest", dest, "files", batch.Len(), "comments", batch.CommentCount())
	return nil
}

// Run performs a whole run: Setup, Scan, Persist. Nothing is scanned when
// setup fails and nothing is stored when the scan is cancelled.
func (e *Engine) Run(ctx context.Context, root, dest string) (*Stats, error) {
	log := e.runLogger()

	if err := e.setup(ctx, dest, log); err != nil {
		return nil, err
	}
	batch, stats, err := e.scan(ctx, root, log)
	if err != nil {
		return stats, err
	}
	if err := e.persist(ctx, batch, dest, log); err != nil {
		return stats, err
	}
	return stats, nil
}
