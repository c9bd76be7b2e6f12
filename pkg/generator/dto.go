package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aymerick/raymond"

	"github.com/archbase/archbase-cli/pkg/util"
)

type dtoOptions struct {
	Name   string `validate:"required"`
	Fields string `validate:"required"`
}

// DTOData is the template context of dto/dto.hbs.
type DTOData struct {
	Name   string
	Fields []Field
}

// DTOGenerator writes a DTO class from `name:JavaType` fields.
type DTOGenerator struct {
	loader *TemplateLoader
	logger *slog.Logger
}

func NewDTOGenerator(loader *TemplateLoader, logger *slog.Logger) *DTOGenerator {
	return &DTOGenerator{loader: loader, logger: util.OrDefault(logger)}
}

func (g *DTOGenerator) Kind() string { return KindDTO }

func (g *DTOGenerator) Description() string {
	return "DTO class from name:JavaType fields"
}

// dtoHelpers map Java field types, unlike the form helpers of the same
// name which map input types.
func dtoHelpers() HelperSet {
	return baseHelpers().With(HelperSet{
		"tsType": func(t any) raymond.SafeString { return raymond.SafeString(MapJavaType(str(t))) },
	})
}

// Generate renders domain/<Name>Dto.ts.
func (g *DTOGenerator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateOptions(dtoOptions{Name: opts.Name, Fields: opts.Fields}); err != nil {
		return nil, &util.GeneratorError{Op: KindDTO, Err: err}
	}
	root, err := outputRoot(opts)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindDTO, Path: opts.OutputDir, Err: err}
	}
	fields, err := ParseFields(opts.Fields, "String")
	if err != nil {
		return nil, &util.GeneratorError{Op: KindDTO, Err: err}
	}

	g.logger.Info("generating dto", "name", opts.Name, "fields", len(fields))
	code, err := NewRenderer(dtoHelpers(), g.loader).Render(KindDTO, "dto", DTOData{Name: opts.Name, Fields: fields})
	if err != nil {
		return nil, &util.GeneratorError{Op: KindDTO, Err: err}
	}
	res := newResult()
	res.add(fmt.Sprintf("domain/%sDto.ts", opts.Name), code)
	if err := writeResult(root, res, opts.DryRun, g.logger); err != nil {
		return nil, err
	}
	return res, nil
}
