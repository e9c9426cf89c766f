package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var out bytes.Buffer
	if err := execute(t, testCLI(&out), "cache", "path"); err != nil {
		t.Fatal(err)
	}
	want, _ := cacheDir()
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("cache path = %q, want %q", out.String(), want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var out bytes.Buffer
	if err := execute(t, testCLI(&out), "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "empty") {
		t.Errorf("clearing a missing cache should say so, got %q", out.String())
	}

	// Populate the cache with one run, then clear it.
	if err := execute(t, testCLI(&bytes.Buffer{}), "generate", writeTwoTone(t), "--columns", "8", "-o", "-"); err != nil {
		t.Fatal(err)
	}
	dir, _ := cacheDir()
	if entries, _ := os.ReadDir(dir); len(entries) == 0 {
		t.Fatal("generate should have filled the cache")
	}
	out.Reset()
	if err := execute(t, testCLI(&out), "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache still holds %s", filepath.Join(dir, entries[0].Name()))
	}
}

func TestNewCacheNoCache(t *testing.T) {
	c := testCLI(&bytes.Buffer{})
	cc, err := c.newCache(t.Context(), cacheFlags{noCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := cc.Get(t.Context(), "k"); hit {
		t.Error("null cache should never hit")
	}
}
