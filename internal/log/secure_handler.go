package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// DefaultMaxValueLength is the longest string value logged unshortened.
const DefaultMaxValueLength = 256

// maskedKeys are attribute keys whose values are always masked.
var maskedKeys = map[string]bool{
	// request and response headers
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,

	// session identifiers
	"session":    true,
	"session_id": true,
	"sessionid":  true,
	"sid":        true,
	"phpsessid":  true,
	"jsessionid": true,

	// raw content
	"body":    true,
	"snippet": true,
	"content": true,
}

// maskedKeywords mask any key containing them.
var maskedKeywords = []string{
	"password", "passwd", "secret", "token", "credential", "cookie", "auth",
}

// sensitivePatterns mask string values regardless of key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// bearer and basic credentials
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`),
	// AWS access key id
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	// long opaque tokens
	regexp.MustCompile(`^[A-Za-z0-9_-]{32,}$`),
	// session cookie pairs such as "PHPSESSID=..." or "laravel_session=..."
	regexp.MustCompile(`(?i)^[a-z0-9_.-]*sess[a-z0-9_.-]*=\S+`),
	// PEM private keys
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// SecureHandler wraps an slog.Handler and masks sensitive attributes before
// they reach it.
type SecureHandler struct {
	handler        slog.Handler
	extraKeys      map[string]bool
	maxValueLength int
}

// HandlerOption configures a SecureHandler.
type HandlerOption func(*SecureHandler)

// WithMaskedKeys masks additional attribute keys (compared case-insensitively).
func WithMaskedKeys(keys ...string) HandlerOption {
	return func(h *SecureHandler) {
		for _, k := range keys {
			h.extraKeys[strings.ToLower(k)] = true
		}
	}
}

// WithMaxValueLength sets the longest string value logged unshortened.
// Zero or a negative value disables shortening.
func WithMaxValueLength(n int) HandlerOption {
	return func(h *SecureHandler) {
		h.maxValueLength = n
	}
}

// NewSecureHandler wraps handler. If handler is nil, slog.Default().Handler()
// is used.
func NewSecureHandler(handler slog.Handler, opts ...HandlerOption) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &SecureHandler{
		handler:        handler,
		extraKeys:      make(map[string]bool),
		maxValueLength: DefaultMaxValueLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the underlying handler handles level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a handler with the (masked) attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return h.clone(h.handler.WithAttrs(sanitized))
}

// WithGroup returns a handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return h.clone(h.handler.WithGroup(name))
}

func (h *SecureHandler) clone(next slog.Handler) *SecureHandler {
	return &SecureHandler{
		handler:        next,
		extraKeys:      h.extraKeys,
		maxValueLength: h.maxValueLength,
	}
}

// sanitizeAttr masks or shortens one attribute, descending into groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if h.isMaskedKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if isSensitiveValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if h.maxValueLength > 0 && len(s) > h.maxValueLength {
		return slog.String(a.Key, s[:h.maxValueLength]+"...("+strconv.Itoa(len(s))+" bytes)")
	}
	return a
}

func (h *SecureHandler) isMaskedKey(key string) bool {
	k := strings.ToLower(key)
	if maskedKeys[k] || h.extraKeys[k] {
		return true
	}
	for _, kw := range maskedKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// Options selects the logger format and level.
type Options struct {
	// Verbose logs at debug level instead of warn.
	Verbose bool
	// JSON writes JSON lines instead of text.
	JSON bool
}

// New creates a logger writing to w through a SecureHandler.
func New(w io.Writer, opts Options, handlerOpts ...HandlerOption) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(w, ho)
	} else {
		base = slog.NewTextHandler(w, ho)
	}
	return slog.New(NewSecureHandler(base, handlerOpts...))
}
