package store

import (
	"errors"
	"fmt"
)

// ErrClose marks a failure to close the database connection. It is
// reported separately from SetupError and PersistError because the data
// itself may already be durable when closing fails.
var ErrClose = errors.New("close database")

// SetupError is returned when the destination cannot be prepared: a prior
// artifact cannot be removed, the database cannot be created, or the
// schema cannot be established. No scan should be attempted after it.
type SetupError struct {
	Dest string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup %s: %v", e.Dest, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// PersistError is returned when any statement of the persisting
// transaction fails. The transaction has been rolled back in full.
type PersistError struct {
	Dest string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Dest, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
