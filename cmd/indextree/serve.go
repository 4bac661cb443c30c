package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/indextree/internal/config"
	"github.com/nao1215/indextree/internal/pipeline"
	"github.com/nao1215/indextree/internal/server"
	"github.com/nao1215/indextree/internal/sink"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front-end",
		Long: `Serve starts a small web front-end for crawling.

  GET  /              form asking for a root URL
  POST /crawl         crawls the form field "url", then redirects to the result
  GET  /trees/        lists generated trees (?format=json for JSON)
  GET  /trees/{name}  serves a generated tree

A crawl runs while the POST request waits, one directory after another.
Concurrent requests for the same root URL share one crawl. Every tree is
kept in the artifact database under the last path segment of its root URL,
and optionally written to --output-dir as well.

Examples:
  # Serve on the default address
  indextree serve

  # Serve on all interfaces and keep copies on disk
  indextree serve --listen :8080 --output-dir trees/`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addWalkFlags(cmd)

	cmd.Flags().String("listen", config.DefaultListen,
		"Address to listen on")
	cmd.Flags().StringP("output-dir", "o", "",
		"Also write every generated tree into this directory")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Listen, err = cmd.Flags().GetString("listen"); err != nil {
		return err
	}
	if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return err
	}
	cfg.SaveToDB = true
	cfg.Quiet = true

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)

	set, err := loadTemplates(cfg)
	if err != nil {
		return err
	}

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	factory := func(rootURL, name string) (*pipeline.Pipeline, error) {
		var out pipeline.Sink
		if cfg.OutputDir != "" {
			out = sink.NewFile(filepath.Join(cfg.OutputDir, name))
		}
		return newPipeline(pipelineOptions{
			cfg:     cfg,
			set:     set,
			rootURL: rootURL,
			sink:    out,
			db:      db,
			logger:  logger,
		})
	}

	svc := server.New(factory, db,
		server.WithLogger(logger),
		server.WithFormat(cfg.OutputFormat()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving on http://%s/ (database: %s)\n", cfg.Listen, db.Path())
	return svc.ListenAndServe(ctx, cfg.Listen)
}
