// Package database provides SQLite-based storage for generated trees.
//
// The ArtifactDB stores:
//   - Rendered documents by artifact name, with a SHA3-256 digest
//   - A log of crawl runs, including failed ones
//
// The web front-end serves documents from it and the history command
// lists its contents. The database is a single file opened through
// modernc.org/sqlite, which needs no cgo.
package database
