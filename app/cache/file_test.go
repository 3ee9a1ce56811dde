package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCacheSetAndGet(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir)

	if err := c.Set("12345", []byte("<rss/>")); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "12345.xml")); err != nil {
		t.Errorf("Expected cache file at <dir>/12345.xml: %v", err)
	}

	data, ok := c.Get("12345", time.Hour)
	if !ok {
		t.Fatal("Expected fresh cache hit")
	}
	if string(data) != "<rss/>" {
		t.Errorf("Expected cached '<rss/>', got '%s'", data)
	}
}

func TestFileCacheFreshnessBoundary(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir)

	if err := c.Set("42", []byte("cached")); err != nil {
		t.Fatal(err)
	}

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(c.Path("42"), t0, t0); err != nil {
		t.Fatal(err)
	}

	maxAge := 60 * time.Second

	c.WithClock(func() time.Time { return t0.Add(maxAge - time.Second) })
	if _, ok := c.Get("42", maxAge); !ok {
		t.Error("Expected hit one second before expiry")
	}

	c.WithClock(func() time.Time { return t0.Add(maxAge + time.Second) })
	if _, ok := c.Get("42", maxAge); ok {
		t.Error("Expected miss one second after expiry")
	}

	c.WithClock(func() time.Time { return t0.Add(maxAge) })
	if _, ok := c.Get("42", maxAge); ok {
		t.Error("Expected miss exactly at expiry")
	}
}

func TestFileCacheMissingFile(t *testing.T) {
	c := NewFileCache(t.TempDir())

	if _, ok := c.Get("absent", time.Hour); ok {
		t.Error("Expected miss for absent file")
	}
}

func TestFileCacheZeroMaxAge(t *testing.T) {
	c := NewFileCache(t.TempDir())
	if err := c.Set("1", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("1", 0); ok {
		t.Error("Expected zero max age to disable hits")
	}
}

func TestFileCacheMissingDirectory(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "does", "not", "exist"))

	if err := c.Set("1", []byte("x")); err == nil {
		t.Error("Expected error writing into missing directory")
	}
	if _, ok := c.Get("1", time.Hour); ok {
		t.Error("Expected miss for missing directory")
	}
}

func TestFileCacheOverwrite(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir)

	if err := c.Set("1", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("1", []byte("second")); err != nil {
		t.Fatal(err)
	}

	data, ok := c.Get("1", time.Hour)
	if !ok || string(data) != "second" {
		t.Errorf("Expected overwritten content 'second', got '%s' (hit=%v)", data, ok)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the cache file in directory, got %d entries", len(entries))
	}
}

func TestFileCacheRejectsUnsafeKeys(t *testing.T) {
	c := NewFileCache(t.TempDir())

	for _, key := range []string{"", "..", "../escape", `a\b`} {
		if err := c.Set(key, []byte("x")); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}

func TestFileCacheSubIsSeparateKeySpace(t *testing.T) {
	dir := t.TempDir()
	root := NewFileCache(dir)
	sub := root.Sub("feeds")

	if err := root.Set("12345", []byte("creator")); err != nil {
		t.Fatal(err)
	}
	if err := sub.Set("12345", []byte("named")); err != nil {
		t.Fatal(err)
	}

	if data, ok := root.Get("12345", time.Hour); !ok || string(data) != "creator" {
		t.Errorf("Expected root entry 'creator', got '%s' (hit=%v)", data, ok)
	}
	if data, ok := sub.Get("12345", time.Hour); !ok || string(data) != "named" {
		t.Errorf("Expected sub entry 'named', got '%s' (hit=%v)", data, ok)
	}
	if _, err := os.Stat(filepath.Join(dir, "feeds", "12345.xml")); err != nil {
		t.Errorf("Expected sub entry under <dir>/feeds: %v", err)
	}
}

func TestFileCacheSubMissingParent(t *testing.T) {
	sub := NewFileCache(filepath.Join(t.TempDir(), "missing")).Sub("feeds")

	if err := sub.Set("1", []byte("x")); err == nil {
		t.Error("Expected error when the parent directory is missing")
	}
}
