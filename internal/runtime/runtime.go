package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
)

// Runtime embeds a Risor VM that evaluates a comment filter script. The
// script sees one comment at a time through the globals text, kind, line,
// path and language, and its final expression must be a bool: true keeps
// the comment, false drops it. The script is compiled once; Keep only runs
// the compiled code, and is safe for concurrent use.
type Runtime struct {
	source     string
	label      string
	code       *compiler.Code
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the script-visible log object.
func WithRuntimeLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

func newRuntime(opts []RuntimeOption) *Runtime {
	r := &Runtime{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadFilter reads the filter script at path. Relative imports inside the
// script resolve against the script's directory.
func LoadFilter(path string, opts ...RuntimeOption) (*Runtime, error) {
	r := newRuntime(opts)
	if r.fsys == nil {
		r.scriptsDir = filepath.Dir(path)
	}
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	r.source = src
	r.label = path
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFilter compiles inline Risor source.
func NewFilter(source string, opts ...RuntimeOption) (*Runtime, error) {
	r := newRuntime(opts)
	r.source = source
	r.label = "<inline>"
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// commentGlobals holds the per-comment globals. Their names must be known
// at compile time; the values are supplied on every Keep.
func commentGlobals(c RawComment, path, language string) map[string]any {
	return map[string]any{
		"text":     c.Text,
		"kind":     string(c.Kind),
		"line":     c.StartLine,
		"path":     path,
		"language": language,
	}
}

func (r *Runtime) compile() error {
	if strings.TrimSpace(r.source) == "" {
		return fmt.Errorf("runtime: script %s is empty", r.label)
	}
	ast, err := parser.Parse(context.Background(), r.source, parser.WithFile(r.label))
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", r.label, err)
	}
	cfg := risor.NewConfig(r.evalOptions(commentGlobals(RawComment{}, "", ""))...)
	code, err := compiler.Compile(ast, cfg.CompilerOpts()...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", r.label, err)
	}
	r.code = code
	return nil
}

// Keep evaluates the filter script against one comment.
func (r *Runtime) Keep(ctx context.Context, c RawComment, path, language string) (bool, error) {
	result, err := risor.EvalCode(ctx, r.code, r.evalOptions(commentGlobals(c, path, language))...)
	if err != nil {
		return false, fmt.Errorf("runtime: script %s: %w", r.label, err)
	}
	b, ok := result.(*object.Bool)
	if !ok {
		return false, fmt.Errorf("runtime: script %s: result must be a bool, got %s", r.label, result.Type())
	}
	return b.Value(), nil
}

// evalOptions returns the Risor options for one evaluation: every global
// plus the importer for the script's source.
func (r *Runtime) evalOptions(extra map[string]any) []risor.Option {
	globals := r.buildGlobals(extra)
	opts := make([]risor.Option, 0, len(globals)+1)
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}
	return opts
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		// For fs.FS, strip any leading path separator so the path is
		// relative within the FS (e.g., "/filters/todo.risor" -> "filters/todo.risor").
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", path, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"sha3": makeHashFn(),
		"log":  mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
