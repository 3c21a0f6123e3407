package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no target URL or list file is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProbeConcurrency is returned when probe concurrency is not positive.
	ErrInvalidProbeConcurrency = errors.New("invalid probe concurrency: must be positive")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Zero disables pacing.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxRedirects is returned when the redirect limit is negative.
	ErrInvalidMaxRedirects = errors.New("invalid max redirects: must be non-negative")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidProbePath is returned when a configured probe is not a path
	// on the target: it must start with a single "/" and carry no scheme or
	// host.
	ErrInvalidProbePath = errors.New("invalid probe path: must be a path on the target starting with /")

	// ErrInvalidTargetURL is returned when a target cannot be turned into an
	// http or https URL with a host.
	ErrInvalidTargetURL = errors.New("invalid target URL")
)
