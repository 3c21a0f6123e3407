package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestCurrentBuild checks that every field of the build information is set,
// falling back to "(devel)" and "unknown" outside release builds.
func TestCurrentBuild(t *testing.T) {
	t.Parallel()

	info := currentBuild()
	for field, value := range map[string]string{
		"version": info.Version,
		"commit":  info.Commit,
		"date":    info.Date,
		"go":      info.Go,
	} {
		if value == "" {
			t.Errorf("%s is empty", field)
		}
	}
}

// TestShortCommit tests abbreviating VCS revisions.
func TestShortCommit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rev  string
		want string
	}{
		{rev: "0123456789abcdef0123456789abcdef01234567", want: "0123456"},
		{rev: "abc", want: "abc"},
		{rev: "", want: ""},
	}
	for _, tt := range tests {
		if got := shortCommit(tt.rev); got != tt.want {
			t.Errorf("shortCommit(%q) = %q, want %q", tt.rev, got, tt.want)
		}
	}
}

// TestNewVersionCmd runs the version command in text and JSON form.
func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, args ...string) string {
		t.Helper()
		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.String()
	}

	t.Run("text output names the binary and toolchain", func(t *testing.T) {
		t.Parallel()
		out := run(t)
		for _, want := range []string{"stacksniffer version ", "commit:", "built:", "go:"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("json output matches the resolved build", func(t *testing.T) {
		t.Parallel()
		var got buildInfo
		if err := json.Unmarshal([]byte(run(t, "--json")), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got != currentBuild() {
			t.Errorf("got %+v, want %+v", got, currentBuild())
		}
	})
}
