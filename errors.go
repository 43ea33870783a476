package distiller

import (
	"errors"
	"fmt"

	"github.com/jward/distiller/internal/metrics"
	"github.com/jward/distiller/internal/runtime"
	"github.com/jward/distiller/internal/store"
)

var (
	// ErrUnsupportedSyntax is wrapped when no comment rule-set exists for a
	// file's type.
	ErrUnsupportedSyntax = runtime.ErrUnsupportedSyntax

	// ErrClose is wrapped when closing the store fails after a successful
	// commit.
	ErrClose = store.ErrClose
)

// ReadError reports a file that could not be read at process time.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ProcessingError is a per-file failure. It wraps a *ReadError,
// ErrUnsupportedSyntax, or an extraction or filter script failure. The
// file is logged and left out of the scan.
type ProcessingError struct {
	Path string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Path, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// failureReason classifies a per-file error for the files_failed metric.
func failureReason(err error) string {
	var readErr *ReadError
	switch {
	case errors.As(err, &readErr):
		return metrics.ReasonRead
	case errors.Is(err, ErrUnsupportedSyntax):
		return metrics.ReasonUnsupported
	default:
		return metrics.ReasonExtract
	}
}
