package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/indextree/internal/config"
	"github.com/nao1215/indextree/internal/database"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of crawl runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored trees and past crawls",
		Long: `History lists the trees kept in the artifact database, newest first.

With --runs it lists crawl runs instead, including failed ones, optionally
filtered to one root URL. The output is a Markdown table.

Examples:
  # List stored trees
  indextree history

  # Show the last 5 crawls of one root URL
  indextree history --runs --root http://mirror.example/pub/ --limit 5

  # Remove a stored tree
  indextree history --delete pub.html`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Directory of the artifact database (default: XDG data directory)")
	cmd.Flags().Bool("runs", false,
		"List crawl runs instead of stored trees")
	cmd.Flags().String("root", "",
		"Only list runs of this root URL (with --runs)")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().String("delete", "",
		"Delete the stored tree with this name")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	runs, err := flags.GetBool("runs")
	if err != nil {
		return err
	}
	rootURL, err := flags.GetString("root")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	deleteName, err := flags.GetString("delete")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case deleteName != "":
		if err := db.DeleteArtifact(ctx, deleteName); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s\n", deleteName)
		return nil
	case runs:
		return printRuns(ctx, out, db, rootURL, limit)
	default:
		return printArtifacts(ctx, out, db)
	}
}

// printArtifacts writes the stored trees as a Markdown table.
func printArtifacts(ctx context.Context, w io.Writer, db *database.ArtifactDB) error {
	artifacts, err := db.ListArtifacts(ctx)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(w, "No trees stored yet. Run a crawl with --save.")
		return nil
	}

	rows := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, []string{
			a.Name,
			a.RootURL,
			a.Format,
			strconv.Itoa(a.Directories),
			strconv.Itoa(a.Leaves),
			formatTime(a.Created),
		})
	}

	return markdown.NewMarkdown(w).
		Table(markdown.TableSet{
			Header: []string{"Name", "Root", "Format", "Directories", "Files", "Created"},
			Rows:   rows,
		}).
		Build()
}

// printRuns writes crawl runs as a Markdown table.
func printRuns(ctx context.Context, w io.Writer, db *database.ArtifactDB, rootURL string, limit int) error {
	runs, err := db.ListRuns(ctx, rootURL, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No crawl runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := "ok"
		if !r.Succeeded() {
			status = r.Error
		}
		rows = append(rows, []string{
			formatTime(r.Timestamp),
			r.RootURL,
			r.Artifact,
			strconv.Itoa(r.Nodes),
			r.Duration.Round(time.Millisecond).String(),
			status,
		})
	}

	return markdown.NewMarkdown(w).
		Table(markdown.TableSet{
			Header: []string{"When", "Root", "Artifact", "Nodes", "Duration", "Status"},
			Rows:   rows,
		}).
		Build()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
