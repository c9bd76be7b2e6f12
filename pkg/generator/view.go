package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archbase/archbase-cli/pkg/util"
)

type viewOptions struct {
	Name              string `validate:"required"`
	DataSourceVersion string `validate:"oneof=v1 v2"`
}

// ViewData is the template context of view/view.hbs.
type ViewData struct {
	ViewName          string
	EntityName        string
	Endpoint          string
	Fields            []Field
	DataSourceVersion string
}

// ViewGenerator writes a CRUD list view backed by a remote DataSource.
type ViewGenerator struct {
	loader *TemplateLoader
	logger *slog.Logger
}

func NewViewGenerator(loader *TemplateLoader, logger *slog.Logger) *ViewGenerator {
	return &ViewGenerator{loader: loader, logger: util.OrDefault(logger)}
}

func (g *ViewGenerator) Kind() string { return KindView }

func (g *ViewGenerator) Description() string {
	return "CRUD list view with a data grid bound to a DataSource"
}

func viewHelpers() HelperSet {
	return baseHelpers().With(HelperSet{
		"if_eq":           ifEqHelper,
		"capitalizeFirst": capitalizeHelper,
		"lowerFirst":      func(s any) string { return lowerFirst(str(s)) },
	})
}

// Generate renders views/<Name>View.tsx.
func (g *ViewGenerator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vo := viewOptions{Name: opts.Name, DataSourceVersion: orDefault(opts.DataSourceVersion, "v2")}
	if err := validateOptions(vo); err != nil {
		return nil, &util.GeneratorError{Op: KindView, Err: err}
	}
	root, err := outputRoot(opts)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindView, Path: opts.OutputDir, Err: err}
	}

	fields := append([]Field(nil), defaultFormFields...)
	if strings.TrimSpace(opts.Fields) != "" {
		if fields, err = ParseFields(opts.Fields, "text"); err != nil {
			return nil, &util.GeneratorError{Op: KindView, Err: err}
		}
	}
	entity := orDefault(opts.Entity, opts.Name)
	data := ViewData{
		ViewName:          opts.Name + "View",
		EntityName:        entity,
		Endpoint:          orDefault(opts.Endpoint, fmt.Sprintf("/api/v1/%ss", strings.ToLower(entity))),
		Fields:            fields,
		DataSourceVersion: vo.DataSourceVersion,
	}

	g.logger.Info("generating view", "name", data.ViewName, "entity", entity)
	code, err := NewRenderer(viewHelpers(), g.loader).Render(KindView, "view", data)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindView, Err: err}
	}
	res := newResult()
	res.add(fmt.Sprintf("views/%s.tsx", data.ViewName), code)
	if err := writeResult(root, res, opts.DryRun, g.logger); err != nil {
		return nil, err
	}
	return res, nil
}
