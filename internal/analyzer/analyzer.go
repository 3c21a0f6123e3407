// Package analyzer composes extraction, matching and aggregation into a
// single analysis of a fetched page.
//
// Analysis is synchronous and has no side effects. An Analyzer holds only a
// sealed catalog, so one Analyzer may serve any number of goroutines.
package analyzer

import (
	"github.com/nao1215/stacksniffer/internal/aggregate"
	"github.com/nao1215/stacksniffer/internal/catalog"
	"github.com/nao1215/stacksniffer/internal/extract"
	"github.com/nao1215/stacksniffer/internal/match"
	"github.com/nao1215/stacksniffer/internal/model"
)

// Analyzer analyzes fetched pages against a signature catalog.
type Analyzer struct {
	catalog *catalog.Catalog
}

// New returns an Analyzer for the given catalog.
func New(cat *catalog.Catalog) *Analyzer {
	return &Analyzer{catalog: cat}
}

// Catalog returns the catalog used by the analyzer.
func (a *Analyzer) Catalog() *catalog.Catalog {
	return a.catalog
}

// Analyze returns the report for page. See the package-level Analyze.
func (a *Analyzer) Analyze(page *model.FetchedPage) *model.Report {
	return Analyze(page, a.catalog)
}

// Analyze extracts evidence from page, matches it against cat and groups the
// matches into a report. The report's TargetURL is the page URL; callers
// that know the originally requested URL may overwrite it.
func Analyze(page *model.FetchedPage, cat *catalog.Catalog) *model.Report {
	if page == nil {
		return model.NewReport("")
	}

	items := extract.Extract(page)
	results := match.Match(items, cat)
	report := aggregate.Aggregate(results, page.URL)
	report.FinalURL = page.URL
	report.StatusCode = page.StatusCode
	report.ProbesSent = len(page.Probes)
	return report
}
