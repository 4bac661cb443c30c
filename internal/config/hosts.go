package config

import (
	"strings"
	"time"
)

// HostConfig holds overrides for one host.
type HostConfig struct {
	// UserAgent overrides the global User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are extra HTTP headers sent to this host, such as
	// Authorization for protected listings.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxDepth overrides the global maximum depth. Zero keeps it.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// CyclePolicy overrides the global cycle policy.
	CyclePolicy string `yaml:"cyclePolicy,omitempty"`

	// Proxy is a SOCKS5 proxy used for this host.
	Proxy string `yaml:"proxy,omitempty"`

	// Timeout overrides the per-request timeout. Zero keeps it.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Retries overrides the retry count. Zero keeps it.
	Retries int `yaml:"retries,omitempty"`
}

// File represents the structure of the .indextree configuration file.
type File struct {
	// Defaults apply to every host unless overridden below.
	Defaults HostConfig `yaml:"defaults,omitempty"`

	// Hosts maps host names, with an optional port, to their overrides.
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`
}

// GetHostConfig returns the defaults merged with the entry for host.
// An entry for "host:port" wins over one for the bare host name.
// Host names are compared case-insensitively.
func (cf *File) GetHostConfig(host string) HostConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	host = strings.ToLower(host)
	candidates := []string{host}
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		candidates = []string{host[:i], host}
	}

	for _, key := range candidates {
		hc, ok := cf.lookup(key)
		if !ok {
			continue
		}
		result = merge(result, hc)
	}

	return result
}

func (cf *File) lookup(host string) (HostConfig, bool) {
	if hc, ok := cf.Hosts[host]; ok {
		return hc, true
	}
	for k, hc := range cf.Hosts {
		if strings.EqualFold(k, host) {
			return hc, true
		}
	}
	return HostConfig{}, false
}

// merge applies the non-zero fields of override to base.
func merge(base, override HostConfig) HostConfig {
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	if override.MaxDepth != 0 {
		base.MaxDepth = override.MaxDepth
	}
	if override.CyclePolicy != "" {
		base.CyclePolicy = override.CyclePolicy
	}
	if override.Proxy != "" {
		base.Proxy = override.Proxy
	}
	if override.Timeout != 0 {
		base.Timeout = override.Timeout
	}
	if override.Retries != 0 {
		base.Retries = override.Retries
	}
	if len(override.Headers) > 0 {
		if base.Headers == nil {
			base.Headers = make(map[string]string)
		}
		for k, v := range override.Headers {
			base.Headers[k] = v
		}
	}
	return base
}
