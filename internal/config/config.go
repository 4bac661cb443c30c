package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/indextree/internal/crawler"
	"github.com/nao1215/indextree/internal/fetch"
	"github.com/nao1215/indextree/internal/render"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "indextree"

	// DefaultTimeout of zero disables the per-request timeout, so a
	// slow listing stalls the walk until it answers.
	DefaultTimeout = time.Duration(0)

	// DefaultMaxDepth bounds how deep directories are followed.
	DefaultMaxDepth = crawler.DefaultMaxDepth

	// DefaultCyclePolicy skips directories that were already visited.
	DefaultCyclePolicy = "skip"

	// DefaultRetries of zero fetches every listing exactly once.
	DefaultRetries = 0

	// DefaultUserAgent identifies indextree in HTTP requests.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultMaxBodySize limits a single listing page to 10MB.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultFormat renders through the folder and file templates.
	DefaultFormat = string(render.FormatTemplate)

	// DefaultListen is the address the web front-end binds to.
	DefaultListen = "127.0.0.1:8080"

	// DefaultConcurrency is the number of crawls run at once in batch mode.
	// Each crawl is itself sequential.
	DefaultConcurrency = 4
)

// Config holds all configuration options for indextree. It is populated
// from CLI flags and the configuration file and passed down explicitly.
type Config struct {
	// Targets are the root URLs to crawl. Each must be an absolute
	// http or https URL; directories end with "/".
	Targets []string

	// Destination is where the document for a single target is written.
	// "-" means standard output.
	Destination string

	// OutputDir receives one document per target in batch mode and one
	// per crawl in the web front-end. Names are derived from the root URL.
	OutputDir string

	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration

	// MaxDepth is the deepest directory that is fetched. Zero means unlimited.
	MaxDepth int

	// CyclePolicy is skip, error or follow.
	CyclePolicy string

	// Retries is the number of extra attempts for transport errors and
	// 5xx responses, with exponential backoff.
	Retries int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the largest listing page accepted, in bytes.
	MaxBodySize int64

	// ProxyAddress routes requests through a SOCKS5 proxy at host:port.
	// Empty means a direct connection.
	ProxyAddress string

	// TemplateDir overrides the embedded templates. Empty uses the defaults.
	TemplateDir string

	// Format is the output format: template, inline, markdown, json or csv.
	Format string

	// NoHyperlinks disables terminal hyperlinks in the progress trace.
	NoHyperlinks bool

	// Quiet suppresses the progress trace.
	Quiet bool

	// Verbose enables debug logging.
	Verbose bool

	// Concurrency is the number of crawls run at once in batch mode.
	Concurrency int

	// DBDir is the directory holding the artifact database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB stores every generated document in the database.
	SaveToDB bool

	// Listen is the address for the web front-end.
	Listen string

	// ConfigFilePath is an explicit configuration file. When empty the
	// file is searched for, see FindConfigFile.
	ConfigFilePath string

	// Hosts holds the loaded configuration file, if any.
	Hosts *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxDepth:    DefaultMaxDepth,
		CyclePolicy: DefaultCyclePolicy,
		Retries:     DefaultRetries,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Format:      DefaultFormat,
		Concurrency: DefaultConcurrency,
		DBDir:       XDGDataDir(),
		Listen:      DefaultListen,
	}
}

// XDGDataDir returns the XDG data directory for indextree.
// On Linux: ~/.local/share/indextree
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for indextree.
// On Linux: ~/.config/indextree
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		return ErrInvalidFormat
	}
	if _, err := crawler.ParseCyclePolicy(c.CyclePolicy); err != nil {
		return ErrInvalidCyclePolicy
	}
	if c.ProxyAddress != "" && !fetch.IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}
	return nil
}

// ValidateCrawl checks the settings used by the crawl command in
// addition to Validate.
func (c *Config) ValidateCrawl() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if !IsValidRootURL(target) {
			return ErrInvalidURL
		}
	}
	return c.Validate()
}

// IsValidRootURL reports whether s is an absolute http or https URL with a host.
func IsValidRootURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// OutputFormat returns the parsed Format. It assumes Validate passed.
func (c *Config) OutputFormat() render.Format {
	f, err := render.ParseFormat(c.Format)
	if err != nil {
		return render.FormatTemplate
	}
	return f
}

// Policy returns the parsed CyclePolicy. It assumes Validate passed.
func (c *Config) Policy() crawler.CyclePolicy {
	p, err := crawler.ParseCyclePolicy(c.CyclePolicy)
	if err != nil {
		return crawler.CycleSkip
	}
	return p
}

// ForHost returns a copy of c with the configuration file's overrides
// for rootURL's host applied.
func (c *Config) ForHost(rootURL string) (*Config, HostConfig) {
	out := *c
	if c.Hosts == nil {
		return &out, HostConfig{}
	}

	host := ""
	if u, err := url.Parse(rootURL); err == nil {
		host = u.Host
	}
	hc := c.Hosts.GetHostConfig(host)

	if hc.UserAgent != "" {
		out.UserAgent = hc.UserAgent
	}
	if hc.MaxDepth != 0 {
		out.MaxDepth = hc.MaxDepth
	}
	if hc.CyclePolicy != "" {
		out.CyclePolicy = hc.CyclePolicy
	}
	if hc.Proxy != "" {
		out.ProxyAddress = hc.Proxy
	}
	if hc.Timeout != 0 {
		out.Timeout = hc.Timeout
	}
	if hc.Retries != 0 {
		out.Retries = hc.Retries
	}
	return &out, hc
}
