package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/stacksniffer/internal/analyzer"
	"github.com/nao1215/stacksniffer/internal/catalog"
	"github.com/nao1215/stacksniffer/internal/config"
	"github.com/nao1215/stacksniffer/internal/database"
	"github.com/nao1215/stacksniffer/internal/fetch"
	applog "github.com/nao1215/stacksniffer/internal/log"
	"github.com/nao1215/stacksniffer/internal/model"
	"github.com/nao1215/stacksniffer/internal/pipeline"
	"github.com/nao1215/stacksniffer/internal/report"
	"github.com/spf13/cobra"
)

// ErrScanFailed is returned when at least one target could not be scanned.
var ErrScanFailed = errors.New("scan failed")

// ErrReportWrite is returned when a report could not be written completely.
var ErrReportWrite = errors.New("failed to write report")

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Collect technology evidence from one or more web sites",
		Long: `Scan requests each target, probes a few well-known paths, and reports the
technologies whose signatures match the collected evidence.

A target without a scheme is requested over https://. Evidence comes from:
- Response headers (Server, X-Powered-By, X-Generator, ...)
- HTML meta tags and script sources
- Cookie names (cookie values are never reported)
- Well-known files such as /robots.txt and /wp-login.php

Examples:
  # Scan a single site
  stacksniffer scan example.com

  # Scan several sites, four at a time
  stacksniffer scan --batch-size 4 example.com example.org

  # Read targets from a file (one per line, # starts a comment)
  stacksniffer scan --list targets.txt

  # Only send a HEAD request and look at the headers
  stacksniffer scan --head example.com

  # Route traffic through a SOCKS5 proxy such as Tor
  stacksniffer scan --proxy 127.0.0.1:9050 example.com

  # Output a JSON or Markdown report
  stacksniffer scan --json example.com
  stacksniffer scan --markdown -o report.md example.com

Configuration file (.stacksniffer) example:
  defaults:
    headers:
      Accept-Language: "en-US"
  sites:
    example.com:
      cookie: "session=abc123"
      probes:
        - /status`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"Read targets from a file (one per line)")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("batch-size", "b", config.DefaultBatchSize,
		"Number of targets scanned concurrently")
	cmd.Flags().Int("probe-concurrency", config.DefaultProbeConcurrency,
		"Number of well-known paths requested concurrently per target")
	cmd.Flags().Float64("rate", config.DefaultRateLimit,
		"Maximum requests per second per target (0 disables pacing)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of body bytes read from the main page")
	cmd.Flags().Int("max-redirects", config.DefaultMaxRedirects,
		"Maximum number of redirects followed for the main page")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("no-probes", false,
		"Do not request well-known paths")
	cmd.Flags().Bool("head", false,
		"Send a HEAD request and collect header evidence only (implies --no-probes)")

	// Catalog and configuration
	cmd.Flags().StringSliceP("signatures", "s", nil,
		"Extra signature catalog files merged into the built-in catalog")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .stacksniffer in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().Bool("show-snippets", false,
		"Print well-known file and body snippets verbatim")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the scan history database")
	cmd.Flags().Bool("no-save", false,
		"Do not store the report in the scan history")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.NormalizeTargets(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.New(cmd.ErrOrStderr(), applog.Options{Verbose: cfg.Verbose})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch-size"); err != nil {
		return nil, err
	}
	if cfg.ProbeConcurrency, err = flags.GetInt("probe-concurrency"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.MaxRedirects, err = flags.GetInt("max-redirects"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.NoProbes, err = flags.GetBool("no-probes"); err != nil {
		return nil, err
	}
	if cfg.HeadOnly, err = flags.GetBool("head"); err != nil {
		return nil, err
	}
	if cfg.SignatureFiles, err = flags.GetStringSlice("signatures"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ShowSnippets, err = flags.GetBool("show-snippets"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit config path must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SignatureFiles = slices.Concat(cfg.SiteConfigs.Signatures, cfg.SignatureFiles)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	cfg.Targets = slices.Clone(args)
	listFile, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	if listFile != "" {
		listed, err := readTargetList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// readTargetList reads one target per line. Blank lines and lines starting
// with '#' are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// runScan scans every target of cfg and writes the reports to stdout or the
// report file. Progress messages go to progress.
func runScan(ctx context.Context, cfg *config.Config, stdout, progress io.Writer, logger *slog.Logger) (retErr error) {
	targets := uniqueTargets(cfg.Targets)

	cat, err := catalog.New(cfg.SignatureFiles...)
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}
	an := analyzer.New(cat)
	logger.Debug("catalog loaded",
		"technologies", len(cat.Technologies()),
		"rules", cat.RuleCount(),
		"extra_files", len(cfg.SignatureFiles),
	)

	var store pipeline.ReportStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Debug("database opened", "path", db.Path())
	}

	pipelines := make(map[string]*pipeline.Pipeline, len(targets))
	for _, target := range targets {
		p, err := newTargetPipeline(cfg, target, an, store, logger)
		if err != nil {
			return err
		}
		pipelines[target] = p
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOutput(); cerr != nil {
			retErr = errors.Join(retErr, fmt.Errorf("%w: %w", ErrReportWrite, cerr))
		}
	}()

	writer, err := newReportWriter(cfg, output, len(targets))
	if err != nil {
		return err
	}

	bp := pipeline.NewBatchProcessor(
		func(target string) *pipeline.Pipeline { return pipelines[target] },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Fprintf(progress, "Scanning %d target(s)...\n", len(targets))
	start := time.Now()

	var (
		mu          sync.Mutex
		failed      int
		writeFailed int
		done        int
	)
	err = bp.ProcessBatchWithCallback(ctx, targets, func(r *model.Report, _ int) {
		mu.Lock()
		defer mu.Unlock()

		done++
		if r.Error != "" {
			failed++
			fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(targets), r.TargetURL, r.Error)
		} else {
			fmt.Fprintf(progress, "[%d/%d] %s: %d technologies\n", done, len(targets), r.TargetURL, len(r.Findings))
		}
		if _, werr := writer.Write(r); werr != nil {
			logger.Error("report failed", "target", r.TargetURL, "error", werr)
			fmt.Fprintf(progress, "[%d/%d] %s: report not written: %v\n", done, len(targets), r.TargetURL, werr)
			if r.Error == "" {
				failed++
			}
			writeFailed++
		}
	})
	fmt.Fprintf(progress, "Scan completed in %s\n", time.Since(start).Round(time.Millisecond))

	if err != nil {
		return err
	}
	var errs []error
	if failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d target(s)", ErrScanFailed, failed, len(targets)))
	}
	if writeFailed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d report(s)", ErrReportWrite, writeFailed))
	}
	return errors.Join(errs...)
}

// newTargetPipeline builds the pipeline for one target with its site
// settings applied.
func newTargetPipeline(cfg *config.Config, target string, an *analyzer.Analyzer, store pipeline.ReportStore, logger *slog.Logger) (*pipeline.Pipeline, error) {
	site := cfg.SiteConfigFor(target)

	client, err := fetch.NewClient(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.EffectiveMaxBodySize()),
		fetch.WithMaxRedirects(cfg.MaxRedirects),
		fetch.WithProbeConcurrency(cfg.ProbeConcurrency),
		fetch.WithRateLimit(cfg.RateLimit),
		fetch.WithHeadOnly(cfg.HeadOnly),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithHeaders(site.Headers),
		fetch.WithCookie(site.Cookie),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	pcfg := pipeline.DefaultPipelineConfig{
		Source:   client,
		Analyzer: an,
		Store:    store,
		Logger:   logger,
	}
	if !cfg.NoProbes && !cfg.HeadOnly {
		pcfg.Prober = client
		pcfg.ProbePaths = site.ProbePaths(an.Catalog().ProbePaths())
	}

	return pipeline.DefaultPipeline(pcfg, pipeline.WithLogger(logger)), nil
}

// newReportWriter selects the writer for the configured format. JSON is
// indented for a single target and written as JSON Lines otherwise.
func newReportWriter(cfg *config.Config, output io.Writer, targets int) (report.Writer, error) {
	format := report.FormatText
	switch {
	case cfg.JSONReport:
		format = report.FormatJSON
	case cfg.MarkdownReport:
		format = report.FormatMarkdown
	}

	opts := []report.Option{
		report.WithShowSnippets(cfg.ShowSnippets),
		report.WithVerbose(cfg.Verbose),
	}
	if targets == 1 {
		opts = append(opts, report.WithIndent("  "))
	}
	return report.NewWriter(output, format, opts...)
}

// openOutput returns the report destination: the report file when set,
// stdout otherwise. The returned close function reports the file's Close
// error, which is where a full disk often surfaces.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports can include probe snippets, so only the owner may read them.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// uniqueTargets drops repeated targets, keeping the first occurrence.
func uniqueTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
