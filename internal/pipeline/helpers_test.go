package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/nao1215/stacksniffer/internal/analyzer"
	"github.com/nao1215/stacksniffer/internal/catalog"
	"github.com/nao1215/stacksniffer/internal/model"
)

const testCatalog = `
technologies:
  - name: Apache
    category: web-server
    rules:
      - {source: header, key: Server, kind: substring, pattern: apache}
  - name: WordPress
    category: cms
    rules:
      - {source: well_known_file, match: key, kind: exact, pattern: /wp-login.php}
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	cat, err := catalog.FromYAML([]byte(testCatalog))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return analyzer.New(cat)
}

// fakeProber answers 200 for the paths in ok and 404 otherwise.
type fakeProber struct {
	ok    map[string]bool
	mu    sync.Mutex
	calls int
	base  string
}

func (f *fakeProber) Probe(_ context.Context, base string, paths []string) []model.Probe {
	f.mu.Lock()
	f.calls++
	f.base = base
	f.mu.Unlock()

	probes := make([]model.Probe, len(paths))
	for i, p := range paths {
		probes[i] = model.Probe{Path: p, StatusCode: 404}
		if f.ok[p] {
			probes[i].StatusCode = 200
		}
	}
	return probes
}

// memoryStore records saved reports.
type memoryStore struct {
	mu      sync.Mutex
	reports []*model.Report
	err     error
}

func (m *memoryStore) SaveReport(_ context.Context, r *model.Report) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return int64(len(m.reports)), nil
}

// funcStep adapts a function to the Step interface.
type funcStep struct {
	name string
	fn   func(ctx context.Context, scan *Scan) error
}

func (s funcStep) Name() string { return s.name }

func (s funcStep) Do(ctx context.Context, scan *Scan) error { return s.fn(ctx, scan) }

var errStep = errors.New("step failed")
