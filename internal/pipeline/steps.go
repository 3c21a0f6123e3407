package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nao1215/stacksniffer/internal/analyzer"
	"github.com/nao1215/stacksniffer/internal/fetch"
	"github.com/nao1215/stacksniffer/internal/model"
)

// ErrNoPage is returned by steps that need a fetched page when none exists.
var ErrNoPage = errors.New("no page fetched")

// FetchStep retrieves the target page.
type FetchStep struct {
	source fetch.PageSource
	logger *slog.Logger
}

// NewFetchStep creates a fetch step reading from source.
func NewFetchStep(source fetch.PageSource, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{source: source, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches scan.Target and records the final URL and status.
func (s *FetchStep) Do(ctx context.Context, scan *Scan) error {
	page, err := s.source.Fetch(ctx, scan.Target)
	if err != nil {
		return err
	}
	scan.Page = page
	scan.Report.FinalURL = page.URL
	scan.Report.StatusCode = page.StatusCode

	s.logger.Debug("page fetched",
		"target", scan.Target,
		"final_url", page.URL,
		"status", page.StatusCode,
		"headers", len(page.Headers),
		"body_bytes", len(page.Body),
	)
	return nil
}

// ProbeStep requests well-known auxiliary paths next to the fetched page.
type ProbeStep struct {
	prober fetch.Prober
	paths  []string
	logger *slog.Logger
}

// NewProbeStep creates a probe step for paths. Duplicate paths are requested once.
func NewProbeStep(prober fetch.Prober, paths []string, logger *slog.Logger) *ProbeStep {
	if logger == nil {
		logger = slog.Default()
	}
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if !slices.Contains(unique, p) {
			unique = append(unique, p)
		}
	}
	return &ProbeStep{prober: prober, paths: unique, logger: logger}
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Paths returns the paths this step requests.
func (s *ProbeStep) Paths() []string {
	return slices.Clone(s.paths)
}

// Do probes every path relative to the final page URL. The page is replaced
// by a copy that carries the probes.
func (s *ProbeStep) Do(ctx context.Context, scan *Scan) error {
	if scan.Page == nil {
		return ErrNoPage
	}
	if len(s.paths) == 0 {
		return nil
	}

	probes := s.prober.Probe(ctx, scan.Page.URL, s.paths)

	page := *scan.Page
	page.Probes = append(slices.Clone(page.Probes), probes...)
	scan.Page = &page
	scan.Report.ProbesSent = len(page.Probes)

	ok := 0
	for _, p := range probes {
		if p.OK() {
			ok++
		}
	}
	s.logger.Debug("probes done",
		"target", scan.Target,
		"sent", len(probes),
		"ok", ok,
	)
	return nil
}

// AnalyzeStep runs the evidence analysis on the fetched page.
type AnalyzeStep struct {
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// NewAnalyzeStep creates an analyze step.
func NewAnalyzeStep(a *analyzer.Analyzer, logger *slog.Logger) *AnalyzeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStep{analyzer: a, logger: logger}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do fills the report findings. The requested target and scan time of the
// report are kept.
func (s *AnalyzeStep) Do(_ context.Context, scan *Scan) error {
	if scan.Page == nil {
		return ErrNoPage
	}

	result := s.analyzer.Analyze(scan.Page)
	scan.Report.Findings = result.Findings
	scan.Report.FinalURL = result.FinalURL
	scan.Report.StatusCode = result.StatusCode
	scan.Report.ProbesSent = result.ProbesSent

	s.logger.Debug("analysis done",
		"target", scan.Target,
		"technologies", len(result.Findings),
		"evidence", result.EvidenceCount(),
	)
	return nil
}

// ReportStore persists reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report *model.Report) (int64, error)
}

// SaveStep stores the report in a ReportStore.
type SaveStep struct {
	store  ReportStore
	logger *slog.Logger
}

// NewSaveStep creates a save step.
func NewSaveStep(store ReportStore, logger *slog.Logger) *SaveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves scan.Report.
func (s *SaveStep) Do(ctx context.Context, scan *Scan) error {
	id, err := s.store.SaveReport(ctx, scan.Report)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	s.logger.Debug("report saved", "target", scan.Target, "id", id)
	return nil
}

// DefaultPipelineConfig wires the standard scan steps.
type DefaultPipelineConfig struct {
	// Source fetches the target page. Required.
	Source fetch.PageSource

	// Prober requests auxiliary paths. Nil disables probing.
	Prober fetch.Prober

	// ProbePaths are the paths requested by the probe step.
	ProbePaths []string

	// Analyzer analyzes the page. Required.
	Analyzer *analyzer.Analyzer

	// Store saves reports. Nil disables saving.
	Store ReportStore

	// Logger is passed to every step.
	Logger *slog.Logger
}

// DefaultPipeline builds fetch, probe, analyze and save steps from cfg.
// The probe step is omitted without a prober or paths and the save step
// without a store.
func DefaultPipeline(cfg DefaultPipelineConfig, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddStep(NewFetchStep(cfg.Source, cfg.Logger))
	if cfg.Prober != nil && len(cfg.ProbePaths) > 0 {
		p.AddStep(NewProbeStep(cfg.Prober, cfg.ProbePaths, cfg.Logger))
	}
	p.AddStep(NewAnalyzeStep(cfg.Analyzer, cfg.Logger))
	if cfg.Store != nil {
		p.AddStep(NewSaveStep(cfg.Store, cfg.Logger))
	}
	return p
}
