package generator

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed templates
var embeddedTemplates embed.FS

// ErrTemplateNotFound is returned when no directory and no embedded default
// provide a template.
var ErrTemplateNotFound = errors.New("template not found")

const (
	commonCategory = "common"
	partialsDir    = "partials"
	templateExt    = ".hbs"
)

// TemplateLoader resolves template sources. A template is looked up as
// <dir>/<category>/<name>.hbs, then <dir>/common/<name>.hbs, then in the
// embedded defaults under the same two paths. Sources are cached.
type TemplateLoader struct {
	dir string

	mu       sync.RWMutex
	cache    map[string]string
	partials map[string]string
}

// NewTemplateLoader creates a loader. An empty dir uses only the embedded
// templates.
func NewTemplateLoader(dir string) *TemplateLoader {
	return &TemplateLoader{dir: dir, cache: map[string]string{}}
}

// Load returns the source of category/name.
func (l *TemplateLoader) Load(category, name string) (string, error) {
	key := category + "/" + name

	l.mu.RLock()
	src, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return src, nil
	}

	src, err := l.resolve(category, name)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	l.cache[key] = src
	l.mu.Unlock()
	return src, nil
}

func (l *TemplateLoader) resolve(category, name string) (string, error) {
	file := name + templateExt
	if l.dir != "" {
		for _, p := range []string{
			filepath.Join(l.dir, category, file),
			filepath.Join(l.dir, commonCategory, file),
		} {
			data, err := os.ReadFile(p)
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("read template %s: %w", p, err)
			}
		}
	}
	for _, p := range []string{
		path.Join("templates", category, file),
		path.Join("templates", commonCategory, file),
	} {
		if data, err := embeddedTemplates.ReadFile(p); err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, category, name)
}

// Partials returns every partial keyed by file name without extension.
// Files in <dir>/partials replace embedded partials of the same name.
func (l *TemplateLoader) Partials() (map[string]string, error) {
	l.mu.RLock()
	cached := l.partials
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	partials := map[string]string{}
	entries, err := embeddedTemplates.ReadDir(path.Join("templates", partialsDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), templateExt) {
			continue
		}
		data, err := embeddedTemplates.ReadFile(path.Join("templates", partialsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		partials[strings.TrimSuffix(e.Name(), templateExt)] = string(data)
	}

	if l.dir != "" {
		dir := filepath.Join(l.dir, partialsDir)
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read partials %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), templateExt) {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("read partial: %w", err)
			}
			partials[strings.TrimSuffix(e.Name(), templateExt)] = string(data)
		}
	}

	l.mu.Lock()
	l.partials = partials
	l.mu.Unlock()
	return partials, nil
}
