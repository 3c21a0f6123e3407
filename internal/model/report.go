package model

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/sha3"
)

// Finding is a technology together with the deduplicated evidence that
// supports it.
type Finding struct {
	// Technology is the technology name from the signature catalog.
	Technology string `json:"technology"`

	// Category is the catalog category of the technology (e.g. "cms").
	Category string `json:"category,omitempty"`

	// Evidence holds the supporting items in first-discovery order.
	// No two items share the same (source, key, value).
	Evidence []EvidenceItem `json:"evidence"`
}

// Report is the result of analyzing one target.
//
// Findings is an ordered slice keyed by technology: each technology occurs
// at most once, and findings are ordered by their earliest evidence.
type Report struct {
	// TargetURL is the URL that was requested.
	TargetURL string `json:"target_url"`

	// FinalURL is the URL of the analyzed page after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the analyzed page.
	StatusCode int `json:"status_code,omitempty"`

	// ScannedAt is when the scan was performed.
	ScannedAt time.Time `json:"scanned_at"`

	// Findings are the technologies with supporting evidence.
	Findings []Finding `json:"findings"`

	// ProbesSent is the number of auxiliary paths requested.
	ProbesSent int `json:"probes_sent,omitempty"`

	// Error is a human-readable error message if the scan failed.
	Error string `json:"error,omitempty"`
}

// NewReport creates an empty report for the given target.
func NewReport(targetURL string) *Report {
	return &Report{
		TargetURL: targetURL,
		ScannedAt: time.Now(),
		Findings:  make([]Finding, 0),
	}
}

// Get returns the finding for a technology.
func (r *Report) Get(technology string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Technology == technology {
			return f, true
		}
	}
	return Finding{}, false
}

// Technologies returns the reported technology names in report order.
func (r *Report) Technologies() []string {
	names := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		names[i] = f.Technology
	}
	return names
}

// HasFindings returns true if at least one technology was reported.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// EvidenceCount returns the total number of evidence items in the report.
func (r *Report) EvidenceCount() int {
	total := 0
	for _, f := range r.Findings {
		total += len(f.Evidence)
	}
	return total
}

// Digest returns a SHA3-256 hex digest of the findings.
// Two scans of an unchanged site produce the same digest; scan time and
// URL metadata are not part of it.
func (r *Report) Digest() string {
	data, err := json.Marshal(r.Findings)
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
