package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ArtifactDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error message %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.SaveArtifact(ctx, &Artifact{Name: "pub.html", RootURL: "http://h/pub/", Format: "template", ContentType: "text/html", Document: []byte("<ul></ul>")}); err != nil {
			t.Fatalf("failed to save artifact: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database with CreateIfNotExists=false: %v", err)
		}
		defer db2.Close()

		got, err := db2.GetArtifact(ctx, "pub.html")
		if err != nil {
			t.Fatalf("failed to get artifact: %v", err)
		}
		if got == nil {
			t.Error("expected artifact to persist")
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

func TestArtifacts(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("save and retrieve artifact", func(t *testing.T) {
		a := &Artifact{
			Name:        "pub.html",
			RootURL:     "http://h/pub/",
			Format:      "template",
			ContentType: "text/html; charset=utf-8",
			Nodes:       5,
			Directories: 2,
			Leaves:      3,
			Document:    []byte("<ul><li>a</li></ul>"),
		}
		if err := db.SaveArtifact(ctx, a); err != nil {
			t.Fatalf("failed to save artifact: %v", err)
		}
		if a.Digest != Digest(a.Document) {
			t.Error("SaveArtifact should fill in the digest")
		}

		got, err := db.GetArtifact(ctx, "pub.html")
		if err != nil {
			t.Fatalf("failed to get artifact: %v", err)
		}
		if got == nil {
			t.Fatal("expected artifact")
		}
		if got.RootURL != a.RootURL || got.Nodes != 5 || got.Directories != 2 || got.Leaves != 3 {
			t.Errorf("unexpected artifact %+v", got)
		}
		if string(got.Document) != string(a.Document) {
			t.Errorf("document = %q", got.Document)
		}
		if got.Created.IsZero() {
			t.Error("expected creation time to be set")
		}
	})

	t.Run("upsert replaces artifact with same name", func(t *testing.T) {
		first := &Artifact{Name: "dup.html", RootURL: "http://h/dup/", Format: "template", ContentType: "text/html", Document: []byte("old")}
		second := &Artifact{Name: "dup.html", RootURL: "http://h/dup/", Format: "inline", ContentType: "text/html", Document: []byte("new")}

		if err := db.SaveArtifact(ctx, first); err != nil {
			t.Fatal(err)
		}
		if err := db.SaveArtifact(ctx, second); err != nil {
			t.Fatal(err)
		}

		got, err := db.GetArtifact(ctx, "dup.html")
		if err != nil {
			t.Fatal(err)
		}
		if string(got.Document) != "new" || got.Format != "inline" {
			t.Errorf("expected replaced artifact, got %+v", got)
		}
		if got.Digest == first.Digest {
			t.Error("digest should change with the document")
		}
	})

	t.Run("returns nil for missing artifact", func(t *testing.T) {
		got, err := db.GetArtifact(ctx, "missing.html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		if err := db.SaveArtifact(ctx, &Artifact{Document: []byte("x")}); err == nil {
			t.Error("expected error for empty name")
		}
	})
}

func TestListArtifacts(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	list, err := db.ListArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}

	for _, name := range []string{"a.html", "b.html", "c.html"} {
		if err := db.SaveArtifact(ctx, &Artifact{Name: name, RootURL: "http://h/", Format: "template", ContentType: "text/html", Document: []byte(name)}); err != nil {
			t.Fatal(err)
		}
	}

	list, err = db.ListArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(list))
	}
	if list[0].Name != "c.html" {
		t.Errorf("expected newest first, got %s", list[0].Name)
	}
	for _, a := range list {
		if a.Document != nil {
			t.Errorf("listing should not load documents (%s)", a.Name)
		}
	}

	if err := db.DeleteArtifact(ctx, "b.html"); err != nil {
		t.Fatal(err)
	}
	list, err = db.ListArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 artifacts after delete, got %d", len(list))
	}
}

func TestCrawlRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	runs := []*CrawlRun{
		{RootURL: "http://h/a/", Artifact: "a.html", Format: "template", Nodes: 4, Duration: 1500 * time.Millisecond},
		{RootURL: "http://h/b/", Format: "inline", Error: "GET http://h/b/x/: 404 Not Found"},
		{RootURL: "http://h/a/", Artifact: "a.html", Format: "template", Nodes: 6},
	}
	for _, run := range runs {
		if err := db.RecordRun(ctx, run); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
		if run.ID == 0 {
			t.Error("expected an ID to be assigned")
		}
	}

	t.Run("lists newest first", func(t *testing.T) {
		all, err := db.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].Nodes != 6 {
			t.Errorf("expected newest run first, got %+v", all[0])
		}
		if all[1].Succeeded() {
			t.Error("failed run should not report success")
		}
		if all[2].Duration != 1500*time.Millisecond {
			t.Errorf("duration = %v", all[2].Duration)
		}
	})

	t.Run("filters by root and limits", func(t *testing.T) {
		got, err := db.ListRuns(ctx, "http://h/a/", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].RootURL != "http://h/a/" {
			t.Errorf("unexpected runs %+v", got)
		}
	})
}

func TestDigest(t *testing.T) {
	t.Parallel()

	// SHA3-256 of the empty input.
	const empty = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := Digest(nil); got != empty {
		t.Errorf("Digest(nil) = %s", got)
	}
	if Digest([]byte("a")) == Digest([]byte("b")) {
		t.Error("different documents should have different digests")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		zero  bool
	}{
		{input: "2025-01-15 10:30:00"},
		{input: "2025-01-15T10:30:00Z"},
		{input: "2025-01-15T10:30:00"},
		{input: "2025-01-15T10:30:00.123456789Z"},
		{input: "not a timestamp", zero: true},
		{input: "", zero: true},
	}

	for _, tt := range tests {
		if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
		}
	}
}
