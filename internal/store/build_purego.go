//go:build purego

package store

// Built with the purego tag: pure Go SQLite via modernc.org/sqlite.
// Useful when the store must be written without a C toolchain for the
// SQLite side, e.g. when cross-compiling the store package on its own.
//
//	go build -tags purego ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver used to open stores.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
