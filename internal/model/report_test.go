package model

import (
	"testing"
)

func sampleReport() *Report {
	r := NewReport("https://example.com")
	r.Findings = []Finding{
		{
			Technology: "Apache",
			Category:   "web-server",
			Evidence: []EvidenceItem{
				{Source: SourceHeader, Key: "Server", Value: "Apache/2.4.41", Location: "header:Server"},
			},
		},
		{
			Technology: "PHP",
			Category:   "language",
			Evidence: []EvidenceItem{
				{Source: SourceCookieName, Key: "PHPSESSID", Value: "PHPSESSID", Location: "cookie:PHPSESSID"},
				{Source: SourceHeader, Key: "X-Powered-By", Value: "PHP/8.1", Location: "header:X-Powered-By"},
			},
		},
	}
	return r
}

// TestReport tests report accessors.
func TestReport(t *testing.T) {
	t.Parallel()

	t.Run("new report has no findings", func(t *testing.T) {
		t.Parallel()
		r := NewReport("https://example.com")
		if r.HasFindings() {
			t.Error("expected no findings")
		}
		if r.Findings == nil {
			t.Error("expected initialized findings slice")
		}
		if r.ScannedAt.IsZero() {
			t.Error("expected scan time to be set")
		}
	})

	t.Run("get returns finding by technology", func(t *testing.T) {
		t.Parallel()
		r := sampleReport()
		f, ok := r.Get("PHP")
		if !ok {
			t.Fatal("expected PHP finding")
		}
		if len(f.Evidence) != 2 {
			t.Errorf("expected 2 evidence items, got %d", len(f.Evidence))
		}
		if _, ok := r.Get("Nginx"); ok {
			t.Error("expected Nginx to be absent")
		}
	})

	t.Run("technologies keep report order", func(t *testing.T) {
		t.Parallel()
		got := sampleReport().Technologies()
		if len(got) != 2 || got[0] != "Apache" || got[1] != "PHP" {
			t.Errorf("unexpected technologies: %v", got)
		}
	})

	t.Run("evidence count sums all findings", func(t *testing.T) {
		t.Parallel()
		if got := sampleReport().EvidenceCount(); got != 3 {
			t.Errorf("expected 3, got %d", got)
		}
	})
}

// TestReportDigest tests that the digest only depends on findings.
func TestReportDigest(t *testing.T) {
	t.Parallel()

	a := sampleReport()
	b := sampleReport()
	b.TargetURL = "https://other.example.com"
	b.StatusCode = 500

	if a.Digest() == "" {
		t.Fatal("expected non-empty digest")
	}
	if a.Digest() != b.Digest() {
		t.Error("expected digest to ignore metadata")
	}

	b.Findings = b.Findings[:1]
	if a.Digest() == b.Digest() {
		t.Error("expected digest to change with findings")
	}
}

// TestCompareReports tests technology diffs between scans.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	t.Run("identical reports", func(t *testing.T) {
		t.Parallel()
		diff := CompareReports(sampleReport(), sampleReport())
		if !diff.Identical {
			t.Error("expected identical reports")
		}
		if diff.Changed() {
			t.Error("expected no change")
		}
		if len(diff.Kept) != 2 {
			t.Errorf("expected 2 kept technologies, got %v", diff.Kept)
		}
	})

	t.Run("added and removed technologies", func(t *testing.T) {
		t.Parallel()
		older := sampleReport()
		newer := sampleReport()
		newer.Findings = append(newer.Findings[1:], Finding{Technology: "Nginx"})

		diff := CompareReports(older, newer)
		if diff.Identical {
			t.Error("expected reports to differ")
		}
		if len(diff.Added) != 1 || diff.Added[0] != "Nginx" {
			t.Errorf("unexpected added: %v", diff.Added)
		}
		if len(diff.Removed) != 1 || diff.Removed[0] != "Apache" {
			t.Errorf("unexpected removed: %v", diff.Removed)
		}
		if len(diff.Kept) != 1 || diff.Kept[0] != "PHP" {
			t.Errorf("unexpected kept: %v", diff.Kept)
		}
	})
}
