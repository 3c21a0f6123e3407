package fetch

import "errors"

// Fetch errors.
var (
	// ErrRequestFailed is returned when the target could not be retrieved
	// (DNS, TLS, connection or timeout failures).
	ErrRequestFailed = errors.New("request failed")

	// ErrInvalidURL is returned when a target or probe URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)
