package model

import (
	"net/http"
	"net/url"
	"net/textproto"
	"sort"
	"strings"
)

// MaxBodyTextSize is the maximum number of body bytes kept as body_text evidence.
const MaxBodyTextSize = 512 * 1024 // 512 KB

// MaxSnippetSize is the maximum number of bytes of a probe body kept as
// well_known_file evidence. The snippet is only used for pattern matching.
const MaxSnippetSize = 4 * 1024 // 4 KB

// Header is a single response header line.
type Header struct {
	// Name is the header name as received.
	Name string `json:"name"`

	// Value is the header value.
	Value string `json:"value"`
}

// Probe is the result of requesting one well-known auxiliary path.
type Probe struct {
	// Path is the requested path, e.g. "/wp-login.php".
	Path string `json:"path"`

	// StatusCode is the HTTP status code. Zero means the request failed.
	StatusCode int `json:"status_code"`

	// Body is the (possibly truncated) response body.
	Body string `json:"-"`
}

// IsLocalPath reports whether p is an absolute path on the target itself:
// it starts with a single '/', carries no scheme or host, and contains no
// backslash that a server could read as "//".
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// OK reports whether the probe answered with a 2xx status.
func (p Probe) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode <= 299
}

// FetchedPage is a target page as delivered by the fetch layer.
// It is treated as immutable once built; the analysis core only reads it.
//
// Headers are an ordered slice rather than a map so that extraction order,
// and therefore the final report, is deterministic.
type FetchedPage struct {
	// URL is the final URL of the page after redirects.
	URL string `json:"url"`

	// StatusCode is the HTTP status code of the page. Non-2xx pages are
	// analyzed like any other page.
	StatusCode int `json:"status_code"`

	// Headers contains the response headers in a stable order.
	Headers []Header `json:"headers"`

	// Body is the (possibly truncated) response body.
	Body string `json:"-"`

	// Probes contains the auxiliary probe results in request order.
	Probes []Probe `json:"probes,omitempty"`
}

// GetHeader returns the first value of the named header.
// Header names are compared case-insensitively.
func (p *FetchedPage) GetHeader(name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// GetAllHeaders returns every value of the named header in order.
func (p *FetchedPage) GetAllHeaders(name string) []string {
	var values []string
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// HeadersFromHTTP converts an http.Header into an ordered header slice.
// Names are canonicalized and sorted; values of one header keep their order.
func HeadersFromHTTP(h http.Header) []Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]Header, 0, len(h))
	for _, name := range names {
		canonical := textproto.CanonicalMIMEHeaderKey(name)
		for _, v := range h[name] {
			headers = append(headers, Header{Name: canonical, Value: v})
		}
	}
	return headers
}

// Truncate shortens s to at most limit bytes.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
