package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 5 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected Timeout to be 5s, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default ProbeConcurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.ProbeConcurrency != 4 {
			t.Errorf("expected ProbeConcurrency to be 4, got %d", cfg.ProbeConcurrency)
		}
	})

	t.Run("default RateLimit is 10 per second", func(t *testing.T) {
		t.Parallel()
		if cfg.RateLimit != 10 {
			t.Errorf("expected RateLimit to be 10, got %v", cfg.RateLimit)
		}
	})

	t.Run("default MaxBodySize is 5 MiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize to be 5MiB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default MaxRedirects is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxRedirects != 10 {
			t.Errorf("expected MaxRedirects to be 10, got %d", cfg.MaxRedirects)
		}
	})

	t.Run("default UserAgent identifies the tool", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != "stacksniffer/1.0 (+https://github.com/nao1215/stacksniffer)" {
			t.Errorf("unexpected UserAgent %q", cfg.UserAgent)
		}
	})

	t.Run("reports are saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB || cfg.DBDir != XDGDataDir() {
			t.Errorf("expected saving to %s, got %v %s", XDGDataDir(), cfg.SaveToDB, cfg.DBDir)
		}
	})
}

// TestConfigValidate tests the Validate method, one rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"example.com"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"unsupported scheme", func(c *Config) { c.Targets = []string{"ftp://example.com"} }, ErrInvalidTargetURL},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"zero probe concurrency", func(c *Config) { c.ProbeConcurrency = 0 }, ErrInvalidProbeConcurrency},
		{"negative rate limit", func(c *Config) { c.RateLimit = -1 }, ErrInvalidRateLimit},
		{"negative max body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative max redirects", func(c *Config) { c.MaxRedirects = -1 }, ErrInvalidMaxRedirects},
		{"malformed proxy", func(c *Config) { c.ProxyAddress = "127.0.0.1" }, ErrInvalidProxyAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero rate limit disables pacing and is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.RateLimit = 0
		cfg.ProxyAddress = "127.0.0.1:9050"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

// TestNormalizeTarget tests target URL normalization.
func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "https://example.com"},
		{in: "  example.com/blog  ", want: "https://example.com/blog"},
		{in: "http://example.com", want: "http://example.com"},
		{in: "https://example.com:8443/x", want: "https://example.com:8443/x"},
		{in: "localhost:8080", want: "https://localhost:8080"},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeTarget(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTargetURL) {
					t.Errorf("expected ErrInvalidTargetURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("config normalizes all targets", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Targets = []string{"a.example", "http://b.example"}
		if err := cfg.NormalizeTargets(); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(cfg.Targets, []string{"https://a.example", "http://b.example"}) {
			t.Errorf("unexpected targets %v", cfg.Targets)
		}
	})

	t.Run("host of target", func(t *testing.T) {
		t.Parallel()
		if got := HostOf("https://Example.COM:8443/path"); got != "example.com" {
			t.Errorf("got %q", got)
		}
		if got := HostOf("ftp://x"); got != "" {
			t.Errorf("expected empty host, got %q", got)
		}
	})
}

// TestGetSiteConfig tests merging site settings over defaults.
func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Cookie:     "default=1",
			Headers:    map[string]string{"X-Scan": "default", "X-Team": "sec"},
			Probes:     []string{"/health"},
			SkipProbes: []string{"/administrator/"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Cookie:     "session=abc",
				Headers:    map[string]string{"X-Scan": "site"},
				Probes:     []string{"/status"},
				SkipProbes: []string{"/robots.txt"},
			},
		},
	}

	t.Run("site overrides defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.GetSiteConfig("example.com")
		if sc.Cookie != "session=abc" {
			t.Errorf("unexpected cookie %q", sc.Cookie)
		}
		if sc.Headers["X-Scan"] != "site" || sc.Headers["X-Team"] != "sec" {
			t.Errorf("unexpected headers %v", sc.Headers)
		}
		if !slices.Equal(sc.Probes, []string{"/health", "/status"}) {
			t.Errorf("unexpected probes %v", sc.Probes)
		}
		if !slices.Equal(sc.SkipProbes, []string{"/administrator/", "/robots.txt"}) {
			t.Errorf("unexpected skip list %v", sc.SkipProbes)
		}
	})

	t.Run("unknown site gets defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.GetSiteConfig("other.com")
		if sc.Cookie != "default=1" || sc.Headers["X-Scan"] != "default" {
			t.Errorf("unexpected config %+v", sc)
		}
	})

	t.Run("merging does not modify defaults", func(t *testing.T) {
		t.Parallel()
		_ = cf.GetSiteConfig("example.com")
		if cf.Defaults.Headers["X-Scan"] != "default" || len(cf.Defaults.Probes) != 1 {
			t.Errorf("defaults were modified: %+v", cf.Defaults)
		}
	})

	t.Run("probe paths apply skip and extra lists", func(t *testing.T) {
		t.Parallel()
		sc := cf.GetSiteConfig("example.com")
		got := sc.ProbePaths([]string{"/wp-login.php", "/robots.txt", "/administrator/", "/health"})
		want := []string{"/wp-login.php", "/health", "/status"}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("probe paths never leave the target host", func(t *testing.T) {
		t.Parallel()
		sc := SiteConfig{Probes: []string{"/status", "//other.host/x", "https://other.host/"}}
		got := sc.ProbePaths([]string{"/robots.txt"})
		want := []string{"/robots.txt", "/status"}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("config without file returns zero site config", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if sc := cfg.SiteConfigFor("https://example.com"); sc.Cookie != "" || len(sc.Headers) != 0 {
			t.Errorf("expected zero config, got %+v", sc)
		}
		cfg.SiteConfigs = cf
		if sc := cfg.SiteConfigFor("https://EXAMPLE.com/path"); sc.Cookie != "session=abc" {
			t.Errorf("expected site config, got %+v", sc)
		}
	})
}

// TestLoadConfigFile tests reading the YAML config file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads sites defaults and signatures", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `defaults:
  headers:
    X-Scan: stacksniffer
sites:
  example.com:
    cookie: session=abc
    skipProbes:
      - /robots.txt
signatures:
  - extra.yaml
  - /abs/other.yaml
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.Headers["X-Scan"] != "stacksniffer" {
			t.Errorf("unexpected defaults %+v", cf.Defaults)
		}
		if cf.Sites["example.com"].Cookie != "session=abc" {
			t.Errorf("unexpected sites %+v", cf.Sites)
		}
		want := []string{filepath.Join(dir, "extra.yaml"), "/abs/other.yaml"}
		if !slices.Equal(cf.Signatures, want) {
			t.Errorf("got %v, want %v", cf.Signatures, want)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("empty file is valid", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected initialized sites map")
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites:\n  example.com:\n    depth: 3\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("probes pointing at another host are rejected", func(t *testing.T) {
		t.Parallel()
		for _, content := range []string{
			"defaults:\n  probes:\n    - //other.host/x\n",
			"sites:\n  example.com:\n    probes:\n      - https://other.host/\n",
			"sites:\n  example.com:\n    probes:\n      - status\n",
		} {
			path := filepath.Join(t.TempDir(), DefaultConfigFile)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfigFile(path); !errors.Is(err, ErrInvalidProbePath) {
				t.Errorf("%q: expected ErrInvalidProbePath, got %v", content, err)
			}
		}
	})
}

// TestFindConfigFile tests the explicit path lookup.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(path); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
	if got := FindConfigFile(path + ".missing"); got != "" {
		t.Errorf("expected empty result for missing explicit path, got %s", got)
	}
}
