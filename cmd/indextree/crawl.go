package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/indextree/internal/config"
	"github.com/nao1215/indextree/internal/database"
	"github.com/nao1215/indextree/internal/pipeline"
	"github.com/nao1215/indextree/internal/server"
	"github.com/nao1215/indextree/internal/sink"
	"github.com/nao1215/indextree/internal/templates"
	"github.com/spf13/cobra"
)

// Prompts shown when the root URL or destination is not given as an argument.
const (
	promptURL         = "Input URL to start tree (traverses from html form with the <a> tags) : \n"
	promptDestination = "Input destination name : \n"
)

// stdoutDestination writes the document to standard output.
const stdoutDestination = "-"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [root-url] [destination]",
		Short: "Crawl directory listings and write the rebuilt tree",
		Long: `Crawl fetches the listing page at the root URL, follows every <a href>
on it and rebuilds the directory tree.

Hrefs are appended to the URL of the listing they appear on. Hrefs ending
in "/" are directories and are fetched in turn, anything else is a file and
is never fetched. The first failed fetch aborts the crawl. With the template
format nothing is written in that case; the inline format streams as it
walks and leaves a truncated document behind.

When the root URL or destination is missing, they are read from standard
input. A destination of "-" writes the document to standard output.

Examples:
  # Rebuild a tree into tree.html
  indextree crawl http://mirror.example/pub/ tree.html

  # Export as Markdown to standard output
  indextree crawl -f markdown http://mirror.example/pub/ -

  # Crawl every URL in a file, one document per URL
  indextree crawl --list roots.txt --output-dir trees/

  # Keep the documents in the artifact database as well
  indextree crawl --save http://mirror.example/pub/ tree.html

Configuration file (.indextree) example:
  defaults:
    maxDepth: 20
  hosts:
    mirror.example:
      headers:
        Authorization: "Basic dXNlcjpwYXNz"
      cyclePolicy: error`,
		Args: crawlArgs,
		RunE: runCrawlCmd,
	}

	addWalkFlags(cmd)

	cmd.Flags().StringP("list", "l", "",
		"File with one root URL per line (blank lines and # comments are ignored)")
	cmd.Flags().StringP("output-dir", "o", "",
		"Directory for one document per root URL, named after its last path segment")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of crawls run at once when there are several root URLs")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print the progress trace")
	cmd.Flags().Bool("no-hyperlinks", false,
		"Print file names in the progress trace without terminal hyperlinks")
	cmd.Flags().BoolP("save", "s", false,
		"Store documents in the artifact database")

	return cmd
}

// crawlArgs accepts any number of root URLs when documents go to an
// output directory, and a root URL plus destination otherwise.
func crawlArgs(cmd *cobra.Command, args []string) error {
	for _, name := range []string{"output-dir", "list"} {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return nil
		}
	}
	return cobra.MaximumNArgs(2)(cmd, args)
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateCrawl(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd, cfg, logger)
}

// buildCrawlConfig creates the crawl Config from flags, arguments and,
// for a single target, standard input.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cfg.NoHyperlinks, err = flags.GetBool("no-hyperlinks"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}

	list, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	if list != "" {
		cfg.Targets, err = readTargetList(list)
		if err != nil {
			return nil, err
		}
		if len(args) > 0 {
			cfg.Targets = append(cfg.Targets, args...)
		}
		return cfg, nil
	}

	if cfg.OutputDir != "" {
		cfg.Targets = args
		return cfg, nil
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	rootURL := ""
	if len(args) > 0 {
		rootURL = args[0]
	} else if rootURL, err = prompt(in, out, promptURL); err != nil {
		return nil, err
	}
	if rootURL != "" {
		cfg.Targets = []string{rootURL}
	}

	if len(args) > 1 {
		cfg.Destination = args[1]
	} else if cfg.Destination, err = prompt(in, out, promptDestination); err != nil {
		return nil, err
	}
	if cfg.Destination == "" {
		return nil, errors.New("no destination provided (give a file name, - for standard output, or --output-dir)")
	}

	return cfg, nil
}

// prompt writes question to out and reads one trimmed line from in.
func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readTargetList reads root URLs from path, one per line.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// runCrawl executes the crawl for every target in cfg.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"format", cfg.Format,
		"maxDepth", cfg.MaxDepth,
		"cyclePolicy", cfg.CyclePolicy,
		"saveToDB", cfg.SaveToDB,
	)

	set, err := loadTemplates(cfg)
	if err != nil {
		return err
	}

	var db *database.ArtifactDB
	if cfg.SaveToDB {
		db, err = openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	if cfg.OutputDir == "" && len(cfg.Targets) == 1 {
		return runSingleCrawl(ctx, cmd, cfg, set, db, logger)
	}
	return runBatchCrawl(ctx, cmd, cfg, set, db, logger)
}

// runSingleCrawl crawls the only target into cfg.Destination.
func runSingleCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, set templates.Set, db *database.ArtifactDB, logger *slog.Logger) error {
	rootURL := cfg.Targets[0]

	var (
		out   pipeline.Sink
		trace io.Writer = cmd.OutOrStdout()
		name            = filepath.Base(cfg.Destination)
	)
	if cfg.Destination == stdoutDestination {
		out = sink.NewWriter(cmd.OutOrStdout())
		trace = cmd.ErrOrStderr()
		name, _ = server.ArtifactName(rootURL, cfg.OutputFormat().Extension()) //nolint:errcheck // rootURL passed ValidateCrawl
	} else {
		out = sink.NewFile(cfg.Destination)
	}
	if cfg.Quiet {
		trace = nil
	}

	p, err := newPipeline(pipelineOptions{
		cfg:        cfg,
		set:        set,
		rootURL:    rootURL,
		sink:       out,
		db:         db,
		trace:      trace,
		hyperlinks: !cfg.NoHyperlinks,
		logger:     logger,
	})
	if err != nil {
		return err
	}

	job := pipeline.NewJob(rootURL, name, cfg.OutputFormat())
	if err := p.Execute(ctx, job); err != nil {
		if job.Written > 0 {
			logger.Warn("document left truncated", "destination", cfg.Destination, "bytes", job.Written)
		}
		return fmt.Errorf("crawl of %s failed: %w", rootURL, err)
	}

	if cfg.Destination != stdoutDestination {
		printSummary(cmd.ErrOrStderr(), job, cfg.Destination)
	}
	return nil
}

// runBatchCrawl crawls every target into cfg.OutputDir.
func runBatchCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, set templates.Set, db *database.ArtifactDB, logger *slog.Logger) error {
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	targets, err := batchTargets(cfg.Targets, cfg.OutputFormat().Extension())
	if err != nil {
		return err
	}

	// Traces of concurrent crawls would interleave line by line.
	var trace io.Writer
	if !cfg.Quiet && cfg.Concurrency == 1 {
		trace = cmd.OutOrStdout()
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Crawling %d root URLs (concurrency: %d)...\n\n", len(targets), cfg.Concurrency)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(t pipeline.Target) (*pipeline.Pipeline, *pipeline.Job, error) {
			p, err := newPipeline(pipelineOptions{
				cfg:        cfg,
				set:        set,
				rootURL:    t.RootURL,
				sink:       sink.NewFile(filepath.Join(outputDir, t.Name)),
				db:         db,
				trace:      trace,
				hyperlinks: !cfg.NoHyperlinks,
				logger:     logger,
			})
			if err != nil {
				return nil, nil, err
			}
			return p, pipeline.NewJob(t.RootURL, t.Name, cfg.OutputFormat()), nil
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	jobs, err := bp.ProcessBatch(ctx, targets)
	if err != nil {
		return err
	}

	failed := 0
	for i, job := range jobs {
		prefix := fmt.Sprintf("[%d/%d] ", i+1, len(jobs))
		if !job.Succeeded() {
			failed++
			fmt.Fprintf(errOut, "%s%s failed: %v\n", prefix, job.RootURL, job.Err)
			continue
		}
		fmt.Fprint(errOut, prefix)
		printSummary(errOut, job, filepath.Join(outputDir, job.Name))
	}

	fmt.Fprintf(errOut, "\nBatch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d crawls failed", failed, len(jobs))
	}
	return nil
}

// batchTargets names every target after its root URL. Repeated names get
// a numeric suffix so no document overwrites another.
func batchTargets(rootURLs []string, ext string) ([]pipeline.Target, error) {
	seen := make(map[string]int, len(rootURLs))
	targets := make([]pipeline.Target, 0, len(rootURLs))
	for _, rootURL := range rootURLs {
		name, err := server.ArtifactName(rootURL, ext)
		if err != nil {
			return nil, err
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = strings.TrimSuffix(name, ext) + "-" + strconv.Itoa(n) + ext
		}
		targets = append(targets, pipeline.Target{RootURL: rootURL, Name: name})
	}
	return targets, nil
}

// printSummary prints one line describing a finished job.
func printSummary(w io.Writer, job *pipeline.Job, destination string) {
	fmt.Fprintf(w, "%s: %d directories, %d files", job.RootURL, job.Stats.Directories, job.Stats.Leaves)
	if job.Stats.Revisits > 0 {
		fmt.Fprintf(w, " (%d revisits skipped)", job.Stats.Revisits)
	}
	fmt.Fprintf(w, " -> %s in %s\n", destination, job.Elapsed.Round(time.Millisecond))
}
