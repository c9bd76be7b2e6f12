package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSourceCache_ReadMapsOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "Form.tsx", "export const Form = () => <div />;\n")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	first, err := cache.Read(path)
	require.NoError(t, err)
	second, err := cache.Read(path)
	require.NoError(t, err)

	assert.Equal(t, "export const Form = () => <div />;\n", string(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Size())

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Mapped)
}

func TestSourceCache_ReadReturnsCopy(t *testing.T) {
	path := writeSource(t, t.TempDir(), "a.ts", "const a = 1;")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	data, err := cache.Read(path)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;", string(again))
}

func TestSourceCache_EmptyFile(t *testing.T) {
	path := writeSource(t, t.TempDir(), "empty.ts", "")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
	assert.Equal(t, 0, cache.Size())
}

func TestSourceCache_MissingFile(t *testing.T) {
	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	_, err := cache.Read(filepath.Join(t.TempDir(), "missing.ts"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSourceCache_Directory(t *testing.T) {
	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	_, err := cache.Read(t.TempDir())
	assert.Error(t, err)
}

func TestSourceCache_InvalidateRereadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "view.tsx", "old content")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(data))

	cache.Invalidate(path)
	assert.Equal(t, 0, cache.Size())

	writeSource(t, dir, "view.tsx", "new content, longer than before")
	data, err = cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "new content, longer than before", string(data))
	assert.Equal(t, int64(1), cache.Stats().Invalidated)
}

func TestSourceCache_InvalidateUnknownPath(t *testing.T) {
	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	cache.Invalidate("/does/not/exist")
	assert.Equal(t, int64(0), cache.Stats().Invalidated)
}

func TestSourceCache_MaxFilesFallsBackToDirectRead(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.ts", "a")
	b := writeSource(t, dir, "b.ts", "b")

	cache := NewSourceCache(SourceCacheConfig{MaxFiles: 1})
	defer cache.Close()

	_, err := cache.Read(a)
	require.NoError(t, err)
	data, err := cache.Read(b)
	require.NoError(t, err)

	assert.Equal(t, "b", string(data))
	assert.Equal(t, 1, cache.Size())
	assert.Equal(t, int64(1), cache.Stats().Uncached)
}

func TestSourceCache_ConcurrentReads(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeSource(t, dir, "one.ts", "export const one = 1;"),
		writeSource(t, dir, "two.ts", "export const two = 2;"),
		writeSource(t, dir, "three.ts", "export const three = 3;"),
	}

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := paths[i%len(paths)]
			data, err := cache.Read(p)
			assert.NoError(t, err)
			assert.NotEmpty(t, data)
			if i%7 == 0 {
				cache.Invalidate(p)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Size(), len(paths))
}

func TestSourceCache_Close(t *testing.T) {
	path := writeSource(t, t.TempDir(), "a.ts", "const a = 1;")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	_, err := cache.Read(path)
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Size())
}

func TestSourceCache_ReadSeesReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "Card.tsx", "export function Card() {}")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export function Card() {}", string(data))

	// Editors usually save by writing a temp file and renaming it over.
	tmp := writeSource(t, dir, "Card.tsx.tmp", "export function Panel() {}")
	require.NoError(t, os.Rename(tmp, path))

	data, err = cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export function Panel() {}", string(data))
	assert.Equal(t, int64(1), cache.Stats().Stale)
	assert.Equal(t, 1, cache.Size())
}

func TestSourceCache_ReadSeesInPlaceRewrite(t *testing.T) {
	path := writeSource(t, t.TempDir(), "view.tsx", "short")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	_, err := cache.Read(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a longer body than before"), 0644))
	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "a longer body than before", string(data))

	// Same size, only the modification time tells them apart.
	require.NoError(t, os.WriteFile(path, []byte("a longer body than AFTER!!"), 0644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	data, err = cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "a longer body than AFTER!!", string(data))
}

func TestSourceCache_ReadDeletedFileDropsMapping(t *testing.T) {
	path := writeSource(t, t.TempDir(), "gone.ts", "const gone = true;")

	cache := NewSourceCache(DefaultSourceCacheConfig())
	defer cache.Close()

	_, err := cache.Read(path)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Size())

	require.NoError(t, os.Remove(path))
	_, err = cache.Read(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 0, cache.Size())
}
