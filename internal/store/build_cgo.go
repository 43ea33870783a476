//go:build !purego

package store

// Default build: CGO SQLite via github.com/mattn/go-sqlite3.
// tree-sitter already requires CGO, so this is the natural pairing.
//
//	CGO_ENABLED=1 go build ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver used to open stores.
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration.
	BuildMode = "cgo"
)
