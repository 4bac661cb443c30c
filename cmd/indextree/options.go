package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/indextree/internal/config"
	"github.com/nao1215/indextree/internal/crawler"
	"github.com/nao1215/indextree/internal/database"
	"github.com/nao1215/indextree/internal/fetch"
	"github.com/nao1215/indextree/internal/log"
	"github.com/nao1215/indextree/internal/pipeline"
	"github.com/nao1215/indextree/internal/render"
	"github.com/nao1215/indextree/internal/templates"
	"github.com/spf13/cobra"
)

// addWalkFlags registers the flags shared by crawl and serve.
func addWalkFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("format", "f", config.DefaultFormat,
		"Output format: template, inline, markdown, json or csv")
	flags.String("template-dir", "",
		"Directory holding folder_template.html, file_template.html and layout.html (default: embedded)")

	flags.IntP("max-depth", "d", config.DefaultMaxDepth,
		"Deepest directory to fetch (0 = unlimited)")
	flags.String("cycle", config.DefaultCyclePolicy,
		"What to do when a directory is reached again: skip, error or follow")

	flags.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request (0 = none)")
	flags.Int("retries", config.DefaultRetries,
		"Extra attempts for connection errors and 5xx responses")
	flags.String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	flags.String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	flags.Int64("max-body-size", config.DefaultMaxBodySize,
		"Largest listing page accepted, in bytes (0 = unlimited)")

	flags.StringP("config", "c", "",
		"Configuration file path (default: .indextree in current or home directory)")
	flags.String("db-dir", "",
		"Directory of the artifact database (default: XDG data directory)")
}

// buildConfig creates a Config from the flags added by addWalkFlags and
// loads the configuration file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.TemplateDir, err = flags.GetString("template-dir"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.CyclePolicy, err = flags.GetString("cycle"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the stderr logger and makes it the default.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)
	return logger
}

// loadTemplates returns the template set named by cfg.
func loadTemplates(cfg *config.Config) (templates.Set, error) {
	source := templates.Embedded()
	if cfg.TemplateDir != "" {
		source = templates.Dir(cfg.TemplateDir)
	}
	set, err := source.Load()
	if err != nil {
		return templates.Set{}, fmt.Errorf("failed to load templates: %w", err)
	}
	return set, nil
}

// openDB opens the artifact database in cfg.DBDir.
func openDB(cfg *config.Config, logger *slog.Logger) (*database.ArtifactDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// newWalker creates the walker for rootURL with the host overrides of the
// configuration file applied. A nil trace disables the progress trace.
func newWalker(cfg *config.Config, rootURL string, trace io.Writer, hyperlinks bool, logger *slog.Logger) (*crawler.Walker, error) {
	hostCfg, host := cfg.ForHost(rootURL)
	if err := hostCfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration for %s: %w", rootURL, err)
	}

	client, err := fetch.NewClient(
		fetch.WithTimeout(hostCfg.Timeout),
		fetch.WithProxy(hostCfg.ProxyAddress),
		fetch.WithUserAgent(hostCfg.UserAgent),
		fetch.WithHeaders(host.Headers),
		fetch.WithMaxBodySize(hostCfg.MaxBodySize),
		fetch.WithRetries(uint64(hostCfg.Retries)), //nolint:gosec // Validate rejects negative retries
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	opts := []crawler.Option{
		crawler.WithMaxDepth(hostCfg.MaxDepth),
		crawler.WithCyclePolicy(hostCfg.Policy()),
		crawler.WithHyperlinks(hyperlinks),
		crawler.WithLogger(logger),
	}
	if trace != nil {
		opts = append(opts, crawler.WithTrace(trace))
	}
	return crawler.NewWalker(client, opts...), nil
}

// pipelineOptions collects what a single crawl pipeline is built from.
type pipelineOptions struct {
	cfg        *config.Config
	set        templates.Set
	rootURL    string
	sink       pipeline.Sink
	db         *database.ArtifactDB
	trace      io.Writer
	hyperlinks bool
	logger     *slog.Logger
}

// newPipeline builds the standard pipeline for one root URL. When db is
// set, the document is stored and the run is recorded.
func newPipeline(o pipelineOptions) (*pipeline.Pipeline, error) {
	walker, err := newWalker(o.cfg, o.rootURL, o.trace, o.hyperlinks, o.logger)
	if err != nil {
		return nil, err
	}

	format := o.cfg.OutputFormat()
	renderer, err := render.New(format, o.set)
	if err != nil {
		return nil, err
	}

	components := pipeline.Components{
		Walker:   walker,
		Renderer: renderer,
		Sink:     o.sink,
	}
	opts := []pipeline.Option{pipeline.WithLogger(o.logger)}

	// An unset *ArtifactDB must not reach the interface fields.
	if o.db != nil {
		components.Store = o.db
		opts = append(opts, pipeline.WithRecorder(o.db))
	}

	return pipeline.Default(format, components, opts...)
}
