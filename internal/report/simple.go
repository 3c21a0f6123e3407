package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/stacksniffer/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...Option) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the target and response information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                       STACKSNIFFER REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:       %s\n", report.TargetURL)
	if report.FinalURL != "" && report.FinalURL != report.TargetURL {
		fmt.Fprintf(sb, "Location:     %s\n", report.FinalURL)
	}
	if report.StatusCode != 0 {
		fmt.Fprintf(sb, "Status Code:  %d\n", report.StatusCode)
	}
	fmt.Fprintf(sb, "Scan Date:    %s\n", report.ScannedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Probes Sent:  %d\n", report.ProbesSent)

	if report.Error != "" {
		fmt.Fprintf(sb, "Status:       ERROR - %s\n", report.Error)
	} else {
		sb.WriteString("Status:       Complete\n")
	}
	sb.WriteString("\n")
}

// writeFindings writes every technology with its evidence.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "TECHNOLOGIES (%d)\n", len(report.Findings))
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	if !report.HasFindings() {
		sb.WriteString("  No technology evidence found\n\n")
		return
	}

	for _, f := range report.Findings {
		if f.Category != "" {
			fmt.Fprintf(sb, "  [+] %s (%s)\n", f.Technology, f.Category)
		} else {
			fmt.Fprintf(sb, "  [+] %s\n", f.Technology)
		}
		for _, item := range f.Evidence {
			w.writeEvidence(sb, item)
		}
		sb.WriteString("\n")
	}
}

// writeEvidence writes one evidence line.
func (w *SimpleWriter) writeEvidence(sb *strings.Builder, item model.EvidenceItem) {
	value := w.displayValue(item)
	// Multi-line snippets stay aligned under the value column.
	value = strings.ReplaceAll(strings.TrimRight(value, "\n"), "\n", "\n"+strings.Repeat(" ", 10))

	fmt.Fprintf(sb, "      %-16s %s: %s\n", item.Source, item.Key, value)
	if w.opts.verbose && item.Location != "" {
		fmt.Fprintf(sb, "      %-16s at %s\n", "", item.Location)
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Evidence only: findings are observed signals, not verdicts.\n")
	sb.WriteString("https://github.com/nao1215/stacksniffer\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
