package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

// testSite is a small web site that looks like WordPress on Apache.
type testSite struct {
	server *httptest.Server

	// serverHeader is the value of the Server header.
	serverHeader atomic.Value

	mu       sync.Mutex
	requests []*http.Request
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()

	site := &testSite{}
	site.serverHeader.Store("Apache/2.4.41 (Ubuntu)")

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		site.record(r)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Server", site.serverHeader.Load().(string)) //nolint:forcetypeassert // always a string
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "secret-session-value"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta name="generator" content="WordPress 6.4"></head><body>hi</body></html>`))
	})
	mux.HandleFunc("/wp-login.php", func(w http.ResponseWriter, r *http.Request) {
		site.record(r)
		_, _ = w.Write([]byte("<form>login</form>"))
	})

	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (s *testSite) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Clone(r.Context()))
}

// Requests returns the requests received so far.
func (s *testSite) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// URL returns the site's base URL.
func (s *testSite) URL() string {
	return s.server.URL
}

// writeConfig writes a config file into a temporary directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".stacksniffer")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
