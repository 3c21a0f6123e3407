package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/stacksniffer/internal/model"
)

// DefaultBatchConcurrency is the number of targets scanned at once.
const DefaultBatchConcurrency = 4

// BatchProcessor scans several targets concurrently with a fresh pipeline
// per target.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each scan.
	pipelineFactory func(target string) *Pipeline

	// concurrency is the maximum number of concurrent scans.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Values below one are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor. pipelineFactory is called
// once per target so that no step state leaks between scans.
func NewBatchProcessor(pipelineFactory func(target string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch scans every target and returns the reports in input order.
// A failed scan still yields a report with Error set. The returned error is
// non-nil only when the context was cancelled; reports of targets that never
// started are nil in that case.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.Report, error) {
	reports := make([]*model.Report, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(report *model.Report, index int) {
		reports[index] = report
	})
	return reports, err
}

// ProcessBatchWithCallback scans every target and calls callback as each
// scan completes. The callback runs on the scanning goroutine, so it must be
// safe for concurrent use if it touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.Report, index int),
) error {
	bp.logger.Info("starting batch",
		"targets", len(targets),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			scan := NewScan(target)
			if err := bp.pipelineFactory(target).Execute(gctx, scan); err != nil {
				bp.logger.Warn("scan failed",
					"target", target,
					"error", err,
				)
			} else {
				bp.logger.Debug("scan completed",
					"target", target,
					"technologies", len(scan.Report.Findings),
				)
			}

			callback(scan.Report, i)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	bp.logger.Info("batch complete",
		"targets", len(targets),
		"elapsed", time.Since(start),
	)
	return err
}
