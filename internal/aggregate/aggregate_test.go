package aggregate

import (
	"slices"
	"testing"

	"github.com/nao1215/stacksniffer/internal/match"
	"github.com/nao1215/stacksniffer/internal/model"
)

func result(tech, category string, source model.SourceKind, key, value string) match.Result {
	return match.Result{
		Technology: tech,
		Category:   category,
		Evidence:   model.EvidenceItem{Source: source, Key: key, Value: value, Location: string(source) + ":" + key},
	}
}

// TestAggregate tests grouping match results into findings.
func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("no results yields empty findings", func(t *testing.T) {
		t.Parallel()
		r := Aggregate(nil, "https://example.com")
		if r.TargetURL != "https://example.com" {
			t.Errorf("unexpected target: %s", r.TargetURL)
		}
		if r.Findings == nil || len(r.Findings) != 0 {
			t.Errorf("expected empty findings, got %+v", r.Findings)
		}
	})

	t.Run("groups by technology in first occurrence order", func(t *testing.T) {
		t.Parallel()
		results := []match.Result{
			result("Apache", "web-server", model.SourceHeader, "Server", "Apache"),
			result("PHP", "language", model.SourceHeader, "X-Powered-By", "PHP/8.1"),
			result("WordPress", "cms", model.SourceMetaTag, "generator", "WordPress 6.2"),
			result("PHP", "language", model.SourceCookieName, "PHPSESSID", "PHPSESSID"),
		}
		r := Aggregate(results, "https://example.com")
		if got, want := r.Technologies(), []string{"Apache", "PHP", "WordPress"}; !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
		php, _ := r.Get("PHP")
		if len(php.Evidence) != 2 {
			t.Fatalf("expected 2 PHP items, got %d", len(php.Evidence))
		}
		if php.Evidence[0].Source != model.SourceHeader || php.Evidence[1].Source != model.SourceCookieName {
			t.Errorf("evidence not in discovery order: %+v", php.Evidence)
		}
		if php.Category != "language" {
			t.Errorf("expected category language, got %s", php.Category)
		}
	})

	t.Run("duplicate evidence is kept once", func(t *testing.T) {
		t.Parallel()
		results := []match.Result{
			result("WordPress", "cms", model.SourceScriptSrc, "src", "/wp-includes/a.js"),
			result("WordPress", "cms", model.SourceScriptSrc, "src", "/wp-includes/a.js"),
			result("WordPress", "cms", model.SourceScriptSrc, "src", "/wp-includes/b.js"),
		}
		r := Aggregate(results, "https://example.com")
		wp, ok := r.Get("WordPress")
		if !ok {
			t.Fatal("expected WordPress")
		}
		if len(wp.Evidence) != 2 {
			t.Errorf("expected 2 unique items, got %+v", wp.Evidence)
		}
	})

	t.Run("same evidence may back several technologies", func(t *testing.T) {
		t.Parallel()
		results := []match.Result{
			result("Apache", "web-server", model.SourceHeader, "Server", "Apache-Coyote/1.1"),
			result("Apache Tomcat", "web-server", model.SourceHeader, "Server", "Apache-Coyote/1.1"),
		}
		r := Aggregate(results, "https://example.com")
		if len(r.Findings) != 2 {
			t.Fatalf("expected 2 findings, got %d", len(r.Findings))
		}
		for _, f := range r.Findings {
			if len(f.Evidence) != 1 {
				t.Errorf("%s: expected 1 item, got %d", f.Technology, len(f.Evidence))
			}
		}
	})

	t.Run("every finding has evidence", func(t *testing.T) {
		t.Parallel()
		results := []match.Result{
			result("A", "", model.SourceHeader, "X-A", "1"),
			result("B", "", model.SourceHeader, "X-B", "1"),
			result("A", "", model.SourceHeader, "X-A", "1"),
		}
		for _, f := range Aggregate(results, "u").Findings {
			if len(f.Evidence) == 0 {
				t.Errorf("%s has no evidence", f.Technology)
			}
		}
	})
}
