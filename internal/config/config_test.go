package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is disabled", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 0 {
			t.Errorf("expected Timeout to be 0, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxDepth is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 100 {
			t.Errorf("expected MaxDepth to be 100, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default Retries is 0", func(t *testing.T) {
		t.Parallel()
		if cfg.Retries != 0 {
			t.Errorf("expected Retries to be 0, got %d", cfg.Retries)
		}
	})

	t.Run("default CyclePolicy is skip", func(t *testing.T) {
		t.Parallel()
		if cfg.CyclePolicy != "skip" {
			t.Errorf("expected CyclePolicy to be skip, got %q", cfg.CyclePolicy)
		}
	})

	t.Run("default Format is template", func(t *testing.T) {
		t.Parallel()
		if cfg.Format != "template" {
			t.Errorf("expected Format to be template, got %q", cfg.Format)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %s, got %s", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults should be valid: %v", err)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("XDGDataDir() = %s", XDGDataDir())
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("XDGConfigDir() = %s", XDGConfigDir())
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "no target", modify: func(c *Config) { c.Targets = nil }, want: ErrNoTarget},
		{name: "relative url", modify: func(c *Config) { c.Targets = []string{"/pub/"} }, want: ErrInvalidURL},
		{name: "ftp url", modify: func(c *Config) { c.Targets = []string{"ftp://h/pub/"} }, want: ErrInvalidURL},
		{name: "second target invalid", modify: func(c *Config) { c.Targets = append(c.Targets, "nope") }, want: ErrInvalidURL},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -time.Second }, want: ErrInvalidTimeout},
		{name: "zero timeout allowed", modify: func(c *Config) { c.Timeout = 0 }},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -1 }, want: ErrInvalidMaxDepth},
		{name: "unlimited depth allowed", modify: func(c *Config) { c.MaxDepth = 0 }},
		{name: "negative retries", modify: func(c *Config) { c.Retries = -1 }, want: ErrInvalidRetries},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "unknown format", modify: func(c *Config) { c.Format = "pdf" }, want: ErrInvalidFormat},
		{name: "format is case-insensitive", modify: func(c *Config) { c.Format = "JSON" }},
		{name: "unknown cycle policy", modify: func(c *Config) { c.CyclePolicy = "loop" }, want: ErrInvalidCyclePolicy},
		{name: "bad proxy", modify: func(c *Config) { c.ProxyAddress = "localhost" }, want: ErrInvalidProxyAddress},
		{name: "good proxy", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:1080" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.Targets = []string{"http://h/pub/"}
			tt.modify(cfg)

			err := cfg.ValidateCrawl()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParsedAccessors(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Format = "Markdown"
	cfg.CyclePolicy = "follow"

	if cfg.OutputFormat() != "markdown" {
		t.Errorf("OutputFormat() = %s", cfg.OutputFormat())
	}
	if cfg.Policy().String() != "follow" {
		t.Errorf("Policy() = %s", cfg.Policy())
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads defaults and hosts", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  userAgent: custom-agent
  maxDepth: 20
  headers:
    Accept-Language: en
hosts:
  mirror.example.com:
    maxDepth: 5
    timeout: 30s
    headers:
      Authorization: Bearer token
  mirror.example.com:8443:
    proxy: 127.0.0.1:1080
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		hc := cf.GetHostConfig("mirror.example.com")
		if hc.UserAgent != "custom-agent" || hc.MaxDepth != 5 || hc.Timeout != 30*time.Second {
			t.Errorf("unexpected host config %+v", hc)
		}
		if hc.Headers["Authorization"] != "Bearer token" || hc.Headers["Accept-Language"] != "en" {
			t.Errorf("headers not merged: %v", hc.Headers)
		}
		if hc.Proxy != "" {
			t.Error("port-specific entry should not apply without the port")
		}

		withPort := cf.GetHostConfig("Mirror.Example.com:8443")
		if withPort.Proxy != "127.0.0.1:1080" || withPort.MaxDepth != 5 {
			t.Errorf("unexpected host:port config %+v", withPort)
		}

		other := cf.GetHostConfig("other.example.com")
		if other.MaxDepth != 20 || len(other.Headers) != 1 {
			t.Errorf("unknown host should get defaults, got %+v", other)
		}

		// Merging must not leak into the defaults.
		if len(cf.Defaults.Headers) != 1 {
			t.Errorf("defaults were modified: %v", cf.Defaults.Headers)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("hosts: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestForHost(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Hosts = &File{
		Hosts: map[string]HostConfig{
			"slow.example.com": {Timeout: time.Minute, Retries: 3, CyclePolicy: "error", UserAgent: "ua"},
		},
	}

	got, hc := cfg.ForHost("http://slow.example.com/pub/")
	if got.Timeout != time.Minute || got.Retries != 3 || got.CyclePolicy != "error" || got.UserAgent != "ua" {
		t.Errorf("overrides not applied: %+v", got)
	}
	if hc.Retries != 3 {
		t.Errorf("host config = %+v", hc)
	}
	if cfg.Retries != 0 {
		t.Error("ForHost must not modify the receiver")
	}

	plain, _ := cfg.ForHost("http://fast.example.com/")
	if plain.Timeout != 0 || plain.Retries != 0 {
		t.Errorf("unexpected overrides for unknown host: %+v", plain)
	}

	noFile := NewConfig()
	if c, hc := noFile.ForHost("http://h/"); c.MaxDepth != DefaultMaxDepth || hc.MaxDepth != 0 {
		t.Error("without a config file the settings are unchanged")
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%s) = %s", path, got)
		}
	})

	t.Run("explicit missing path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("expected empty result, got %s", got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ConfigFilePath = filepath.Join(t.TempDir(), "missing")
		if err := cfg.Load(); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("explicit file is loaded", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("defaults:\n  maxDepth: 3\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := NewConfig()
		cfg.ConfigFilePath = path
		if err := cfg.Load(); err != nil {
			t.Fatal(err)
		}
		if cfg.Hosts == nil || cfg.Hosts.Defaults.MaxDepth != 3 {
			t.Errorf("unexpected hosts %+v", cfg.Hosts)
		}
	})
}
