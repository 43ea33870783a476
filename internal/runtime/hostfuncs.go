package runtime

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/distiller/internal/store"
)

// makeHashFn creates the "sha3" host function, so scripts can match
// comments against known SHA3-512 digests.
//
// sha3(text) → lowercase hex string
func makeHashFn() *object.Builtin {
	return object.NewBuiltin("sha3", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("sha3", 1, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("sha3: argument must be a string, got %s", args[0].Type())
		}
		return object.NewString(store.ComputeHash([]byte(s.Value())))
	})
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "filter")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "filter")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "filter")
}
