package util

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// SourceCache serves source file contents from memory-mapped files.
//
// Files are mapped lazily on first Read and stay mapped until Invalidate or
// Close. Every Read stats the file and remaps it when it was replaced or its
// size or modification time changed, so contents are never stale. Read
// returns a private copy, so a caller never observes a region that a
// concurrent Invalidate has unmapped.
//
// Safe for concurrent use.
type SourceCache interface {
	// Read returns the file contents. When the cache is full or mmap fails
	// the file is read with os.ReadFile and not retained.
	Read(path string) ([]byte, error)

	// Invalidate drops the cached mapping for path. The next Read remaps it.
	Invalidate(path string)

	// Size returns the number of mapped files.
	Size() int

	Stats() SourceCacheStats

	// Close unmaps every file. The cache must not be used afterwards.
	Close() error
}

// SourceCacheConfig controls SourceCache behavior.
type SourceCacheConfig struct {
	// MaxFiles caps the number of mapped files. 0 means unlimited.
	MaxFiles int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultSourceCacheConfig returns limits suited to typical front-end projects.
func DefaultSourceCacheConfig() SourceCacheConfig {
	return SourceCacheConfig{MaxFiles: 10000}
}

// SourceCacheStats are cumulative counters.
type SourceCacheStats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Uncached     int64 `json:"uncached"`
	MmapFailures int64 `json:"mmapFailures"`
	Invalidated  int64 `json:"invalidated"`
	Stale        int64 `json:"stale"`
	Mapped       int   `json:"mapped"`
}

type mappedSource struct {
	data mmap.MMap
	file *os.File
	info os.FileInfo
}

type sourceCache struct {
	cfg    SourceCacheConfig
	logger *slog.Logger

	mu    sync.RWMutex
	files map[string]*mappedSource

	hits, misses, uncached, mmapFailures, invalidated, stale atomic.Int64
}

// NewSourceCache creates a SourceCache.
func NewSourceCache(cfg SourceCacheConfig) SourceCache {
	return &sourceCache{
		cfg:    cfg,
		logger: OrDefault(cfg.Logger),
		files:  make(map[string]*mappedSource),
	}
}

func (c *sourceCache) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.forget(path)
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %q: is a directory", path)
	}

	c.mu.RLock()
	if ms, ok := c.files[path]; ok && ms.matches(info) {
		out := bytes.Clone(ms.data)
		c.mu.RUnlock()
		c.hits.Add(1)
		return nonNil(out), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ms, ok := c.files[path]; ok {
		// Another goroutine may have remapped it while we waited.
		if ms.matches(info) {
			c.hits.Add(1)
			return nonNil(bytes.Clone(ms.data)), nil
		}
		c.drop(path, ms)
		c.stale.Add(1)
	}
	c.misses.Add(1)

	if c.cfg.MaxFiles > 0 && len(c.files) >= c.cfg.MaxFiles {
		c.uncached.Add(1)
		return readUncached(path)
	}

	ms, err := c.mapFile(path)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		c.uncached.Add(1)
		return readUncached(path)
	}
	c.files[path] = ms
	return nonNil(bytes.Clone(ms.data)), nil
}

// forget drops the mapping of a file that can no longer be stat'ed.
func (c *sourceCache) forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms, ok := c.files[path]; ok {
		c.drop(path, ms)
		c.stale.Add(1)
	}
}

// matches reports whether info still describes the mapped file: same inode,
// size and modification time. A same-size rewrite inside one filesystem
// timestamp tick goes unnoticed.
func (ms *mappedSource) matches(info os.FileInfo) bool {
	return os.SameFile(ms.info, info) &&
		ms.info.Size() == info.Size() &&
		ms.info.ModTime().Equal(info.ModTime())
}

// mapFile returns nil, nil when the file cannot be mapped but may still be
// readable (empty files, mmap refused).
func (c *sourceCache) mapFile(path string) (*mappedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("read %q: is a directory", path)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		c.mmapFailures.Add(1)
		c.logger.Warn("mmap failed, reading file directly", "file", path, "error", err)
		return nil, nil
	}
	return &mappedSource{data: data, file: f, info: info}, nil
}

func readUncached(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return data, nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func (c *sourceCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms, ok := c.files[path]
	if !ok {
		return
	}
	c.drop(path, ms)
	c.invalidated.Add(1)
}

// drop unmaps ms and forgets path. Callers hold c.mu.
func (c *sourceCache) drop(path string, ms *mappedSource) {
	delete(c.files, path)
	if err := unmap(ms); err != nil {
		c.logger.Warn("failed to release mapping", "file", path, "error", err)
	}
}

func (c *sourceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

func (c *sourceCache) Stats() SourceCacheStats {
	return SourceCacheStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Uncached:     c.uncached.Load(),
		MmapFailures: c.mmapFailures.Load(),
		Invalidated:  c.invalidated.Load(),
		Stale:        c.stale.Load(),
		Mapped:       c.Size(),
	}
}

func (c *sourceCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for path, ms := range c.files {
		if err := unmap(ms); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	c.files = make(map[string]*mappedSource)

	c.logger.Debug("source cache closed",
		"hits", c.hits.Load(),
		"misses", c.misses.Load(),
		"mmap_failures", c.mmapFailures.Load())

	return errors.Join(errs...)
}

func unmap(ms *mappedSource) error {
	var errs []error
	if ms.data != nil {
		if err := ms.data.Unmap(); err != nil {
			errs = append(errs, err)
		}
	}
	if ms.file != nil {
		if err := ms.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
