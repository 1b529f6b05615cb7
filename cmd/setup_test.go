package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	testutil "github.com/chorusfm/chorus/internal/testing"
)

const sampleCurl = `curl 'https://pipedapi.example.org/streams/abc' -H 'User-Agent: TestBrowser/1.0' -H 'Cookie: session=xyz'`

func TestSetupConfig(t *testing.T) {
	t.Run("CreatesConfigFile", func(t *testing.T) {
		r, _, buf := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := run(t, r, "setup", "config", "--config", path); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		testutil.AssertFileExists(t, path)
		if !strings.Contains(buf.String(), "Config written") {
			t.Errorf("expected confirmation output, got %q", buf.String())
		}
	})

	t.Run("RefusesToOverwrite", func(t *testing.T) {
		r, _, _ := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := run(t, r, "setup", "config", "--config", path); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := run(t, r, "setup", "config", "--config", path); err == nil {
			t.Error("expected an error when the config already exists")
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	r, _, buf := newTestRunner(t)
	r.config.Database.Path = filepath.Join(t.TempDir(), "chorus.db")

	if err := run(t, r, "setup", "database"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	testutil.AssertFileExists(t, r.config.Database.Path)
	if !strings.Contains(buf.String(), "Local store ready") {
		t.Errorf("expected confirmation output, got %q", buf.String())
	}
}

func TestSetupHeaders(t *testing.T) {
	t.Run("SavesInlineCurl", func(t *testing.T) {
		r, _, _ := newTestRunner(t)
		out := filepath.Join(t.TempDir(), "headers.curl")

		if err := run(t, r, "setup", "headers", "--curl", sampleCurl, "--output", out); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		if got := testutil.MustReadFile(t, out); got != sampleCurl {
			t.Errorf("saved command does not match input: %q", got)
		}
	})

	t.Run("SavesFromFile", func(t *testing.T) {
		r, _, _ := newTestRunner(t)
		src := filepath.Join(t.TempDir(), "paste.txt")
		if err := os.WriteFile(src, []byte(sampleCurl), 0600); err != nil {
			t.Fatal(err)
		}
		out := filepath.Join(t.TempDir(), "headers.curl")

		if err := run(t, r, "setup", "headers", "--curl-file", src, "--output", out); err != nil {
			t.Fatalf("command failed: %v", err)
		}
		testutil.AssertFileExists(t, out)
	})

	t.Run("RequiresOneSource", func(t *testing.T) {
		r, _, _ := newTestRunner(t)

		if err := run(t, r, "setup", "headers"); err == nil {
			t.Error("expected an error without a curl source")
		}
	})

	t.Run("RejectsBothSources", func(t *testing.T) {
		r, _, _ := newTestRunner(t)

		if err := run(t, r, "setup", "headers", "--curl", sampleCurl, "--curl-file", "x"); err == nil {
			t.Error("expected an error with both sources given")
		}
	})

	t.Run("BadPasteFailsEarly", func(t *testing.T) {
		r, _, _ := newTestRunner(t)
		out := filepath.Join(t.TempDir(), "headers.curl")

		if err := run(t, r, "setup", "headers", "--curl", "curl 'https://x.example'", "--output", out); err == nil {
			t.Error("expected an error for a paste without headers")
		}
		if _, err := os.Stat(out); !os.IsNotExist(err) {
			t.Error("a bad paste must not be saved")
		}
	})
}
