package distiller

import (
	"github.com/jward/distiller/internal/runtime"
	"github.com/jward/distiller/internal/store"
)

// Public type aliases for internal types used in the Engine API.
// These are Go type aliases (=), identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type FileRecord = store.FileRecord
type CommentRecord = store.CommentRecord
type RawComment = runtime.RawComment
type SetupError = store.SetupError
type PersistError = store.PersistError
