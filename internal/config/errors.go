package config

import "errors"

// Configuration validation errors returned by Validate and ValidateCrawl.
var (
	// ErrNoTarget is returned when no root URL is given.
	ErrNoTarget = errors.New("no target specified: provide a root URL or use --list")

	// ErrInvalidURL is returned when a root URL is not an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid root URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the timeout is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative (0 disables it)")

	// ErrInvalidMaxDepth is returned when the maximum depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative (0 means unlimited)")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidFormat is returned for an unknown output format.
	ErrInvalidFormat = errors.New("invalid format: must be template, inline, markdown, json or csv")

	// ErrInvalidCyclePolicy is returned for an unknown cycle policy.
	ErrInvalidCyclePolicy = errors.New("invalid cycle policy: must be skip, error or follow")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxyAddress is returned when the proxy is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
