// Package distiller extracts comments from C, C++ and Rust source trees and
// stores them, fingerprinted by SHA3-512, in a SQLite database. Parsing is
// done with tree-sitter grammars, so delimiters inside string literals are
// never mistaken for comments.
//
// # Pipeline
//
// A run has three phases:
//
//  1. Setup: remove any previous database at the destination and create
//     the files and comments tables.
//
//  2. Scan: walk the root directory, submit every regular file with a
//     supported extension (c, cpp, cxx, h, rs) to a bounded worker pool,
//     and collect one [FileRecord] per file. Each worker reads the file,
//     hashes the raw bytes, decodes them as lossy UTF-8, extracts comments
//     and drops those shorter than the minimum length (5 bytes by default).
//     A file that cannot be processed is logged and left out; it never
//     fails the scan.
//
//  3. Persist: insert every record in one transaction. Either the whole
//     scan is stored or, on any failed insert, none of it is.
//
// # Usage
//
//	e, err := distiller.New(distiller.WithLogger(logger))
//	if err != nil { ... }
//
//	stats, err := e.Run(ctx, "path/to/project", "results.db")
//
// [Engine.Setup], [Engine.Scan] and [Engine.Persist] can also be called
// separately, for example to inspect records before storing them.
//
// # Schema
//
//	files(id = content hash, filename = path as walked)
//	comments(id = comment hash, comment = text, filehash = owning file's content hash)
//
// Records carry no ordering guarantee across files: the worker pool finishes
// files in whatever order it likes. Within a file, comments keep source order.
//
// # Filter scripts
//
// [WithFilterScript] loads a Risor script that is evaluated once per comment
// with the globals text, kind, line, path and language. Its final expression
// must be a bool; false drops the comment. See the internal/runtime package
// for the host functions available to scripts.
package distiller
