package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/stacksniffer/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names an output format.
type Format string

// Supported output formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.Report) (int, error)
}

// Option configures a writer. Options that do not apply to a format are
// ignored by that format's writer.
type Option func(*options)

type options struct {
	showSnippets bool
	verbose      bool
	indent       string
}

// WithShowSnippets prints well-known file and body text values verbatim
// instead of a size summary.
func WithShowSnippets(show bool) Option {
	return func(o *options) {
		o.showSnippets = show
	}
}

// WithVerbose adds evidence locations to the text output.
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// WithIndent sets the JSON indentation string. An empty string produces
// compact output.
func WithIndent(indent string) Option {
	return func(o *options) {
		o.indent = indent
	}
}

// NewWriter returns the writer for format.
func NewWriter(output io.Writer, format Format, opts ...Option) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output, opts...), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, opts...), nil
	case FormatJSON:
		return NewJSONWriter(output, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers, e.g. the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers and stops on the
// first error.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds what every writer needs.
type baseWriter struct {
	output io.Writer
	opts   options
}

func newBaseWriter(output io.Writer, opts []Option) baseWriter {
	b := baseWriter{output: output}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// displayValue returns the value of an evidence item as it should be
// printed.
func (b baseWriter) displayValue(item model.EvidenceItem) string {
	if item.Source.IsSnippet() && !b.opts.showSnippets {
		return summarizeSnippet(item.Value)
	}
	return item.Value
}

// summarizeSnippet replaces raw content with its size.
func summarizeSnippet(value string) string {
	if value == "" {
		return "(empty)"
	}
	return fmt.Sprintf("(%d bytes)", len(value))
}

// redact returns a copy of the report with snippet values summarized.
func redact(report *model.Report) *model.Report {
	out := *report
	out.Findings = make([]model.Finding, len(report.Findings))
	for i, f := range report.Findings {
		evidence := make([]model.EvidenceItem, len(f.Evidence))
		for j, item := range f.Evidence {
			if item.Source.IsSnippet() {
				item.Value = summarizeSnippet(item.Value)
			}
			evidence[j] = item
		}
		f.Evidence = evidence
		out.Findings[i] = f
	}
	return &out
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
