package config

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeTarget turns user input into an absolute http(s) URL. Input
// without a scheme is assumed to be https.
//
//	example.com        -> https://example.com
//	http://example.com -> http://example.com
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTargetURL)
	}

	lower := strings.ToLower(target)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(target, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidTargetURL, raw)
		}
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidTargetURL, raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidTargetURL, raw)
	}
	return u.String(), nil
}

// HostOf returns the host (without port) of target, or "" if target is not
// a URL. Targets without a scheme are normalized first.
func HostOf(target string) string {
	normalized, err := NormalizeTarget(target)
	if err != nil {
		return ""
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
