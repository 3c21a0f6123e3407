// Package aggregate groups match results into a report.
//
// Findings appear in the order their technology was first matched, and each
// finding lists its evidence in discovery order without duplicates. No
// confidence or score is computed.
package aggregate

import (
	"github.com/nao1215/stacksniffer/internal/match"
	"github.com/nao1215/stacksniffer/internal/model"
)

// Aggregate builds a report for targetURL from match results.
// Results must be ordered by evidence discovery, as match.Match returns them.
func Aggregate(results []match.Result, targetURL string) *model.Report {
	report := model.NewReport(targetURL)

	index := make(map[string]int)
	seen := make(map[string]map[model.EvidenceKey]struct{})

	for _, r := range results {
		i, ok := index[r.Technology]
		if !ok {
			i = len(report.Findings)
			index[r.Technology] = i
			seen[r.Technology] = make(map[model.EvidenceKey]struct{})
			report.Findings = append(report.Findings, model.Finding{
				Technology: r.Technology,
				Category:   r.Category,
			})
		}

		id := r.Evidence.Identity()
		if _, dup := seen[r.Technology][id]; dup {
			continue
		}
		seen[r.Technology][id] = struct{}{}
		report.Findings[i].Evidence = append(report.Findings[i].Evidence, r.Evidence)
	}
	return report
}
