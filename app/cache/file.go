package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores one rendered document per key under a directory. It is
// best-effort: Get treats every failure as a miss and Set reports errors
// for logging only.
type FileCache struct {
	dir    string
	now    func() time.Time
	ownDir bool
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{
		dir: dir,
		now: time.Now,
	}
}

// WithClock replaces the time source used for freshness checks.
func (c *FileCache) WithClock(now func() time.Time) *FileCache {
	c.now = now
	return c
}

// Sub returns a cache rooted in the subdirectory name of c. The
// subdirectory is created on first write; the parent must already exist.
func (c *FileCache) Sub(name string) *FileCache {
	return &FileCache{
		dir:    filepath.Join(c.dir, name),
		now:    c.now,
		ownDir: true,
	}
}

func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, key+".xml")
}

// Get returns the cached document for key if it was modified less than
// maxAge ago.
func (c *FileCache) Get(key string, maxAge time.Duration) ([]byte, bool) {
	if validateKey(key) != nil || maxAge <= 0 {
		return nil, false
	}

	path := c.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if c.now().Sub(info.ModTime()) >= maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Set replaces the document for key. The write goes through a temporary
// file in the same directory so readers never see a partial document.
func (c *FileCache) Set(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if c.ownDir {
		if err := os.Mkdir(c.dir, 0755); err != nil && !os.IsExist(err) {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(c.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set cache file mode: %w", err)
	}

	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	return nil
}
