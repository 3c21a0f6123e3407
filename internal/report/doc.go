// Package report renders scan reports for people and tools.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal (default)
//   - MarkdownWriter: Markdown with tables and a category chart
//   - JSONWriter: structured JSON for tool integration
//
// Writers never print probe bodies or page text verbatim unless the
// WithShowSnippets option is set; those values are replaced with a short
// summary.
package report
