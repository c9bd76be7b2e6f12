// Package generator renders TypeScript artifacts for Archbase projects from
// Handlebars templates. Each generator builds its own helper set per call,
// so helpers never leak between generations.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/archbase/archbase-cli/pkg/util"
)

var (
	// ErrUnknownGenerator is returned by Lookup for kinds outside the registry.
	ErrUnknownGenerator = errors.New("unknown generator")
	// ErrInvalidOptions wraps option validation failures.
	ErrInvalidOptions = errors.New("invalid generator options")
)

// Generator kinds.
const (
	KindService    = "service"
	KindDTO        = "dto"
	KindForm       = "form"
	KindView       = "view"
	KindNavigation = "navigation"
)

// Options is the union of every generator's inputs. Each generator reads
// the fields it needs and validates them.
type Options struct {
	Name      string `json:"name"`
	OutputDir string `json:"outputDir,omitempty"`
	DryRun    bool   `json:"dryRun,omitempty"`

	Entity         string `json:"entity,omitempty"`
	EntityType     string `json:"entityType,omitempty"`
	IDType         string `json:"idType,omitempty"`
	Endpoint       string `json:"endpoint,omitempty"`
	JavaController string `json:"javaController,omitempty"`
	GenerateDTO    bool   `json:"generateDto,omitempty"`

	Fields            string `json:"fields,omitempty"`
	Validation        string `json:"validation,omitempty"`
	Layout            string `json:"layout,omitempty"`
	DataSourceVersion string `json:"dataSourceVersion,omitempty"`
	Category          string `json:"category,omitempty"`
}

// Result lists the files a generation produced. Paths are relative to the
// output directory and use forward slashes.
type Result struct {
	Files []string          `json:"files"`
	Code  map[string]string `json:"code"`
}

func newResult() *Result {
	return &Result{Files: []string{}, Code: map[string]string{}}
}

func (r *Result) add(path, code string) {
	r.Files = append(r.Files, path)
	r.Code[path] = code
}

// Generator produces one kind of artifact.
type Generator interface {
	Kind() string
	Description() string
	Generate(ctx context.Context, opts Options) (*Result, error)
}

// Config is shared by every generator in a registry.
type Config struct {
	// TemplatesDir overrides the embedded templates when set.
	TemplatesDir string
	Logger       *slog.Logger
}

// Registry maps generator kinds to implementations.
type Registry struct {
	generators map[string]Generator
}

// Default returns the registry of built-in generators.
func Default(cfg Config) *Registry {
	logger := util.OrDefault(cfg.Logger)
	loader := NewTemplateLoader(cfg.TemplatesDir)
	r := &Registry{generators: map[string]Generator{}}
	for _, g := range []Generator{
		NewServiceGenerator(loader, logger),
		NewDTOGenerator(loader, logger),
		NewFormGenerator(loader, logger),
		NewViewGenerator(loader, logger),
		NewNavigationGenerator(loader, logger),
	} {
		r.generators[g.Kind()] = g
	}
	return r
}

// Lookup returns the generator for kind.
func (r *Registry) Lookup(kind string) (Generator, error) {
	g, ok := r.generators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, kind)
	}
	return g, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.generators))
	for k := range r.generators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Generate looks up kind and runs it.
func (r *Registry) Generate(ctx context.Context, kind string, opts Options) (*Result, error) {
	g, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, opts)
}

// outputRoot resolves the directory generated files are written under.
func outputRoot(opts Options) (string, error) {
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}

// writeResult writes every file in res under root unless dryRun is set.
func writeResult(root string, res *Result, dryRun bool, logger *slog.Logger) error {
	if dryRun {
		return nil
	}
	for _, rel := range res.Files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &util.GeneratorError{Op: "write", Path: path, Err: err}
		}
		if err := os.WriteFile(path, []byte(res.Code[rel]), 0o644); err != nil {
			return &util.GeneratorError{Op: "write", Path: path, Err: err}
		}
		logger.Info("generated file", "path", path)
	}
	return nil
}
