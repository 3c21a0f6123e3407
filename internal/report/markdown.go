package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/stacksniffer/internal/model"
)

// uncategorized labels technologies without a catalog category.
const uncategorized = "other"

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeEvidence(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Stacksniffer Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + report.TargetURL + "`"},
	}
	if report.FinalURL != "" && report.FinalURL != report.TargetURL {
		rows = append(rows, []string{"Location", "`" + report.FinalURL + "`"})
	}
	if report.StatusCode != 0 {
		rows = append(rows, []string{"Status Code", strconv.Itoa(report.StatusCode)})
	}
	rows = append(rows,
		[]string{"Scan Date", report.ScannedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Probes Sent", strconv.Itoa(report.ProbesSent)},
		[]string{"Status", statusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Error != "" {
		md.Cautionf("The scan failed: %s", report.Error)
		md.PlainText("")
	}
}

func statusText(report *model.Report) string {
	if report.Error != "" {
		return "❌ Error"
	}
	return "✅ Complete"
}

// writeSummary writes the technology table and the category chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Technologies")
	md.PlainText("")

	if !report.HasFindings() {
		md.Note("No technology evidence found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Findings))
	for i, f := range report.Findings {
		category := f.Category
		if category == "" {
			category = "-"
		}
		rows[i] = []string{f.Technology, category, strconv.Itoa(len(f.Evidence))}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Technology", "Category", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report)

	md.Important("Findings are observed signals, not verdicts. Check the evidence before drawing conclusions.")
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of technologies per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Technologies by Category"),
		piechart.WithShowData(true),
	)

	counts := make(map[string]uint64)
	order := make([]string, 0)
	for _, f := range report.Findings {
		category := f.Category
		if category == "" {
			category = uncategorized
		}
		if _, ok := counts[category]; !ok {
			order = append(order, category)
		}
		counts[category]++
	}
	for _, category := range order {
		chart.LabelAndIntValue(category, counts[category])
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeEvidence writes one evidence table per technology.
func (w *MarkdownWriter) writeEvidence(md *markdown.Markdown, report *model.Report) {
	if !report.HasFindings() {
		return
	}

	md.H2("Evidence")
	md.PlainText("")

	for _, f := range report.Findings {
		md.PlainText("### " + f.Technology)
		md.PlainText("")

		rows := make([][]string, len(f.Evidence))
		for i, item := range f.Evidence {
			rows[i] = []string{
				string(item.Source),
				tableCell(item.Key, 40),
				tableCell(w.displayValue(item), 80),
				tableCell(item.Location, 40),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Source", "Key", "Value", "Location"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [stacksniffer](https://github.com/nao1215/stacksniffer)*")
}

// tableCell flattens s into a single table cell.
func tableCell(s string, maxLen int) string {
	if s == "" {
		return "-"
	}
	s = strings.Join(strings.Fields(s), " ")
	s = truncateString(s, maxLen)
	return strings.ReplaceAll(s, "|", `\|`)
}
