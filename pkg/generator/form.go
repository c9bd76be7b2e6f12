package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archbase/archbase-cli/pkg/util"
)

type formOptions struct {
	Name              string `validate:"required"`
	Validation        string `validate:"oneof=yup zod none"`
	Layout            string `validate:"oneof=vertical horizontal grid"`
	DataSourceVersion string `validate:"oneof=v1 v2"`
}

// FormData is the template context of form/form.hbs.
type FormData struct {
	ComponentName     string
	EntityName        string
	Fields            []Field
	UseValidation     bool
	ValidationLibrary string
	HasRequiredFields bool
	DataSourceVersion string
	Layout            string
}

var defaultFormFields = []Field{
	{Name: "name", Type: "text", Label: "Name", Required: true, Placeholder: "Enter name..."},
	{Name: "email", Type: "email", Label: "Email", Required: true, Placeholder: "Enter email..."},
}

// FormGenerator writes a DataSource-bound form component.
type FormGenerator struct {
	loader *TemplateLoader
	logger *slog.Logger
}

func NewFormGenerator(loader *TemplateLoader, logger *slog.Logger) *FormGenerator {
	return &FormGenerator{loader: loader, logger: util.OrDefault(logger)}
}

func (g *FormGenerator) Kind() string { return KindForm }

func (g *FormGenerator) Description() string {
	return "Form component bound to a DataSource, with yup or zod validation"
}

func formHelpers() HelperSet {
	return baseHelpers().With(HelperSet{
		"if_eq": ifEqHelper,
		"includes": func(list, item any) bool {
			values, _ := list.([]string)
			for _, v := range values {
				if v == str(item) {
					return true
				}
			}
			return false
		},
		"capitalizeFirst": capitalizeHelper,
		"toLowerCase":     lowercaseHelper,
		"lowerFirst":      func(s any) string { return lowerFirst(str(s)) },
		"tsType":          func(t any) string { return inputTSType(str(t)) },
		"fieldComponent":  func(t any) string { return inputComponent(str(t)) },
	})
}

// Generate renders forms/<Name>.tsx.
func (g *FormGenerator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fo := formOptions{
		Name:              opts.Name,
		Validation:        orDefault(opts.Validation, "yup"),
		Layout:            orDefault(opts.Layout, "vertical"),
		DataSourceVersion: orDefault(opts.DataSourceVersion, "v2"),
	}
	if err := validateOptions(fo); err != nil {
		return nil, &util.GeneratorError{Op: KindForm, Err: err}
	}
	root, err := outputRoot(opts)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindForm, Path: opts.OutputDir, Err: err}
	}

	fields := append([]Field(nil), defaultFormFields...)
	if strings.TrimSpace(opts.Fields) != "" {
		if fields, err = ParseFields(opts.Fields, "text"); err != nil {
			return nil, &util.GeneratorError{Op: KindForm, Err: err}
		}
	}
	hasRequired := false
	for i := range fields {
		fields[i].Validation = validationFor(fo.Validation, fields[i].Type, fields[i].Required)
		hasRequired = hasRequired || fields[i].Required
	}

	entity := opts.Entity
	if entity == "" {
		entity = strings.TrimSuffix(opts.Name, "Form")
	}
	data := FormData{
		ComponentName:     opts.Name,
		EntityName:        entity,
		Fields:            fields,
		UseValidation:     fo.Validation != "none",
		ValidationLibrary: fo.Validation,
		HasRequiredFields: hasRequired,
		DataSourceVersion: fo.DataSourceVersion,
		Layout:            fo.Layout,
	}

	g.logger.Info("generating form", "name", opts.Name, "fields", len(fields), "validation", fo.Validation)
	code, err := NewRenderer(formHelpers(), g.loader).Render(KindForm, "form", data)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindForm, Err: err}
	}
	res := newResult()
	res.add(fmt.Sprintf("forms/%s.tsx", opts.Name), code)
	if err := writeResult(root, res, opts.DryRun, g.logger); err != nil {
		return nil, err
	}
	return res, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
