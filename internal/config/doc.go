// Package config provides configuration structures and utilities for
// indextree: crawl limits, HTTP client settings, output selection and
// the optional .indextree file with per-host overrides.
package config
