// Package cache stores evaluation reports keyed by a hash of everything
// that determines them: the resolved configuration and the bytes of every
// input table.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spboyer/lesioneval/internal/models"
)

// Cache is a directory of JSON-encoded reports. A Cache with an empty
// directory is disabled: Get always misses and Put is a no-op.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key hashes the JSON encoding of settings together with the contents of
// inputs. Inputs are hashed in sorted order so the caller's ordering does not
// matter; a missing input contributes its path so that adding the file later
// changes the key.
func Key(settings any, inputs []string) (string, error) {
	h := sha256.New()

	data, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("marshaling settings: %w", err)
	}
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	if err := writeString(h, ""); err != nil {
		return "", err
	}

	if err := hashInputs(h, inputs); err != nil {
		return "", fmt.Errorf("hashing inputs: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached report. Unreadable or corrupt entries are misses.
func (c *Cache) Get(key string) (*models.EvaluationReport, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}

	var report models.EvaluationReport
	if err := json.Unmarshal(data, &report); err != nil {
		slog.Debug("ignoring corrupt cache entry", "key", key, "error", err)
		return nil, false
	}
	return &report, true
}

// Put stores a report under key.
func (c *Cache) Put(key string, report *models.EvaluationReport) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Entries returns the number of cached reports.
func (c *Cache) Entries() (int, error) {
	if c.dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n, nil
}

// Clear removes the cache directory. It refuses to touch a directory that
// holds anything other than cache entries.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// writeString writes s with a NUL delimiter so adjacent fields cannot collide.
func writeString(w io.Writer, s string) error {
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func hashInputs(h io.Writer, inputs []string) error {
	sorted := make([]string, len(inputs))
	copy(sorted, inputs)
	sort.Strings(sorted)

	for _, path := range sorted {
		if err := writeString(h, path); err != nil {
			return err
		}
		if err := hashFile(h, path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("hashing %s: %w", path, err)
		}
	}
	return nil
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	_, err = io.Copy(h, f)
	return err
}
