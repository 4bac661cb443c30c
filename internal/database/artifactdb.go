package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the database directory.
const FileName = "indextree.db"

// ArtifactDB stores rendered documents and the crawl log.
type ArtifactDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ArtifactDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so the server can read while
	// a crawl is being stored.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ArtifactDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ArtifactDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl with --save first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &ArtifactDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Path returns the database file path.
func (adb *ArtifactDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *ArtifactDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *ArtifactDB) createTables() error {
	schema := `
	-- Artifacts are rendered documents addressed by name
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		root_url TEXT NOT NULL,
		format TEXT NOT NULL,
		content_type TEXT NOT NULL,
		nodes INTEGER NOT NULL DEFAULT 0,
		directories INTEGER NOT NULL DEFAULT 0,
		leaves INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL,
		document BLOB NOT NULL,
		created DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_root ON artifacts(root_url);
	CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created);

	-- Crawl runs record every walk, successful or not
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		artifact TEXT,
		format TEXT NOT NULL,
		nodes INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON crawl_runs(root_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// Artifact is a stored document.
type Artifact struct {
	ID          int64
	Name        string
	RootURL     string
	Format      string
	ContentType string
	Nodes       int
	Directories int
	Leaves      int

	// Digest is the hex SHA3-256 of Document.
	Digest   string
	Document []byte
	Created  time.Time
}

// Digest returns the hex SHA3-256 of document.
func Digest(document []byte) string {
	sum := sha3.Sum256(document)
	return hex.EncodeToString(sum[:])
}

// SaveArtifact inserts an artifact, replacing any artifact with the same
// name. The digest is computed from the document.
func (adb *ArtifactDB) SaveArtifact(ctx context.Context, a *Artifact) error {
	if a.Name == "" {
		return errors.New("artifact name is empty")
	}
	a.Digest = Digest(a.Document)

	query := `
	INSERT INTO artifacts (name, root_url, format, content_type, nodes, directories, leaves, digest, document)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		root_url = excluded.root_url,
		format = excluded.format,
		content_type = excluded.content_type,
		nodes = excluded.nodes,
		directories = excluded.directories,
		leaves = excluded.leaves,
		digest = excluded.digest,
		document = excluded.document,
		created = CURRENT_TIMESTAMP
	`

	_, err := adb.db.ExecContext(ctx, query,
		a.Name,
		a.RootURL,
		a.Format,
		a.ContentType,
		a.Nodes,
		a.Directories,
		a.Leaves,
		a.Digest,
		a.Document,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// GetArtifact retrieves an artifact by name. It returns nil, nil when no
// artifact has that name.
func (adb *ArtifactDB) GetArtifact(ctx context.Context, name string) (*Artifact, error) {
	query := `
	SELECT id, name, root_url, format, content_type, nodes, directories, leaves, digest, document, created
	FROM artifacts
	WHERE name = ?
	`

	var a Artifact
	var created string

	err := adb.db.QueryRowContext(ctx, query, name).Scan(
		&a.ID,
		&a.Name,
		&a.RootURL,
		&a.Format,
		&a.ContentType,
		&a.Nodes,
		&a.Directories,
		&a.Leaves,
		&a.Digest,
		&a.Document,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	a.Created = parseTimestamp(created)
	return &a, nil
}

// ListArtifacts returns every artifact without its document, newest first.
func (adb *ArtifactDB) ListArtifacts(ctx context.Context) ([]Artifact, error) {
	query := `
	SELECT id, name, root_url, format, content_type, nodes, directories, leaves, digest, created
	FROM artifacts
	ORDER BY created DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	results := make([]Artifact, 0)
	for rows.Next() {
		var a Artifact
		var created string

		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.RootURL,
			&a.Format,
			&a.ContentType,
			&a.Nodes,
			&a.Directories,
			&a.Leaves,
			&a.Digest,
			&created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}

		a.Created = parseTimestamp(created)
		results = append(results, a)
	}

	return results, rows.Err()
}

// DeleteArtifact removes an artifact. Deleting a missing name is not an error.
func (adb *ArtifactDB) DeleteArtifact(ctx context.Context, name string) error {
	if _, err := adb.db.ExecContext(ctx, "DELETE FROM artifacts WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// CrawlRun is one entry of the crawl log.
type CrawlRun struct {
	ID       int64
	RootURL  string
	Artifact string
	Format   string
	Nodes    int

	// Error is the failure message, empty for a successful run.
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// Succeeded reports whether the run completed without error.
func (r CrawlRun) Succeeded() bool {
	return r.Error == ""
}

// RecordRun appends a run to the crawl log.
func (adb *ArtifactDB) RecordRun(ctx context.Context, run *CrawlRun) error {
	query := `
	INSERT INTO crawl_runs (root_url, artifact, format, nodes, error, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := adb.db.ExecContext(ctx, query,
		run.RootURL,
		run.Artifact,
		run.Format,
		run.Nodes,
		run.Error,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record crawl run: %w", err)
	}

	run.ID, err = result.LastInsertId()
	return err
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run. A non-empty rootURL filters by root.
func (adb *ArtifactDB) ListRuns(ctx context.Context, rootURL string, limit int) ([]CrawlRun, error) {
	query := `
	SELECT id, root_url, COALESCE(artifact, ''), format, nodes, COALESCE(error, ''), duration_ms, timestamp
	FROM crawl_runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if rootURL != "" {
		query += " AND root_url = ?"
		args = append(args, rootURL)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	results := make([]CrawlRun, 0)
	for rows.Next() {
		var run CrawlRun
		var durationMS int64
		var timestamp string

		if err := rows.Scan(
			&run.ID,
			&run.RootURL,
			&run.Artifact,
			&run.Format,
			&run.Nodes,
			&run.Error,
			&durationMS,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}

		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Timestamp = parseTimestamp(timestamp)
		results = append(results, run)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp parses s with each of timestampFormats in turn and
// returns the zero time when none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
