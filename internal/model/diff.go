package model

// ReportDiff describes how the technologies of a target changed between two
// scans.
type ReportDiff struct {
	// Added are technologies present only in the newer report.
	Added []string `json:"added"`

	// Removed are technologies present only in the older report.
	Removed []string `json:"removed"`

	// Kept are technologies present in both reports.
	Kept []string `json:"kept"`

	// Identical is true when both reports have the same digest.
	Identical bool `json:"identical"`
}

// CompareReports compares an older and a newer report of the same target.
// Added and Kept follow the order of the newer report, Removed the order of
// the older one.
func CompareReports(older, newer *Report) ReportDiff {
	diff := ReportDiff{
		Added:   make([]string, 0),
		Removed: make([]string, 0),
		Kept:    make([]string, 0),
	}

	oldSet := make(map[string]bool, len(older.Findings))
	for _, f := range older.Findings {
		oldSet[f.Technology] = true
	}
	newSet := make(map[string]bool, len(newer.Findings))
	for _, f := range newer.Findings {
		newSet[f.Technology] = true
		if oldSet[f.Technology] {
			diff.Kept = append(diff.Kept, f.Technology)
		} else {
			diff.Added = append(diff.Added, f.Technology)
		}
	}
	for _, f := range older.Findings {
		if !newSet[f.Technology] {
			diff.Removed = append(diff.Removed, f.Technology)
		}
	}

	diff.Identical = older.Digest() == newer.Digest()
	return diff
}

// Changed reports whether any technology was added or removed.
func (d ReportDiff) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}
