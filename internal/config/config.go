package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/stacksniffer/internal/fetch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "stacksniffer"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultBatchSize is the number of targets scanned concurrently.
	DefaultBatchSize = 4

	// DefaultProbeConcurrency is the number of auxiliary paths requested at once.
	DefaultProbeConcurrency = fetch.DefaultProbeConcurrency

	// DefaultRateLimit is the request budget per second for one target.
	DefaultRateLimit = fetch.DefaultRateLimit

	// DefaultMaxBodySize limits how much of a page body is read.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultMaxRedirects is the number of redirects followed for the main page.
	DefaultMaxRedirects = fetch.DefaultMaxRedirects

	// DefaultUserAgent identifies stacksniffer in HTTP requests.
	DefaultUserAgent = fetch.DefaultUserAgent
)

// Config holds all options of one stacksniffer run. It is populated from CLI
// flags and the config file, then passed down explicitly.
type Config struct {
	// Targets are the URLs to scan.
	Targets []string

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// BatchSize is the number of targets scanned concurrently.
	BatchSize int

	// ProbeConcurrency is the number of auxiliary paths requested at once.
	ProbeConcurrency int

	// RateLimit is the maximum number of requests per second per target.
	// Zero disables pacing.
	RateLimit float64

	// MaxBodySize is the maximum number of body bytes read from the main page.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed for the main page.
	MaxRedirects int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// ProxyAddress routes traffic through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// NoProbes disables requests to well-known auxiliary paths.
	NoProbes bool

	// HeadOnly issues a HEAD request for the main page and skips probes.
	// Only header evidence is collected.
	HeadOnly bool

	// SignatureFiles are extra catalog files merged into the built-in catalog.
	SignatureFiles []string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit path of the config file, if any.
	ConfigFilePath string

	// SiteConfigs holds the loaded config file, or nil.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ShowSnippets prints probe and body snippets verbatim in reports.
	ShowSnippets bool

	// ReportFile is the output path. Empty means stdout.
	ReportFile string

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores every report in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:          DefaultTimeout,
		BatchSize:        DefaultBatchSize,
		ProbeConcurrency: DefaultProbeConcurrency,
		RateLimit:        DefaultRateLimit,
		MaxBodySize:      DefaultMaxBodySize,
		MaxRedirects:     DefaultMaxRedirects,
		UserAgent:        DefaultUserAgent,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for stacksniffer.
// On Linux: ~/.local/share/stacksniffer
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for stacksniffer.
// On Linux: ~/.config/stacksniffer
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before anything touches the network.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if _, err := NormalizeTarget(target); err != nil {
			return err
		}
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.ProbeConcurrency <= 0 {
		return ErrInvalidProbeConcurrency
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}
	if c.ProxyAddress != "" && !fetch.IsValidProxyAddress(c.ProxyAddress) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, c.ProxyAddress)
	}
	return nil
}

// NormalizeTargets rewrites every target with NormalizeTarget.
func (c *Config) NormalizeTargets() error {
	for i, target := range c.Targets {
		normalized, err := NormalizeTarget(target)
		if err != nil {
			return err
		}
		c.Targets[i] = normalized
	}
	return nil
}

// EffectiveMaxBodySize returns MaxBodySize, or the default when unset.
func (c *Config) EffectiveMaxBodySize() int64 {
	if c.MaxBodySize == 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// SiteConfigFor returns the site settings for target's host. Without a
// config file the zero SiteConfig is returned.
func (c *Config) SiteConfigFor(target string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(HostOf(target))
}
