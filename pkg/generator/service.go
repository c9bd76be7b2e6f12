package generator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/archbase/archbase-cli/pkg/java"
	"github.com/archbase/archbase-cli/pkg/util"
)

type serviceOptions struct {
	ServiceName string `validate:"required"`
	EntityName  string `validate:"required"`
	EntityType  string `validate:"required"`
}

// ServiceData is the template context of the service and DTO templates.
type ServiceData struct {
	ServiceName      string
	EntityName       string
	EntityType       string
	IDType           string
	Endpoint         string
	HasCustomMethods bool
	CustomMethods    []ServiceMethod
	Imports          []string
}

// ServiceGenerator writes an ArchbaseRemoteApiService subclass, optionally
// with methods mapped from a Spring controller.
type ServiceGenerator struct {
	loader *TemplateLoader
	logger *slog.Logger
}

func NewServiceGenerator(loader *TemplateLoader, logger *slog.Logger) *ServiceGenerator {
	return &ServiceGenerator{loader: loader, logger: util.OrDefault(logger)}
}

func (g *ServiceGenerator) Kind() string { return KindService }

func (g *ServiceGenerator) Description() string {
	return "Remote API service, optionally mapped from a Java controller"
}

func serviceHelpers() HelperSet {
	return baseHelpers().With(HelperSet{
		"buildMethodParams": func(params any) raymond.SafeString {
			ps := asParams(params)
			parts := make([]string, len(ps))
			for i, p := range ps {
				parts[i] = p.Name + ": " + p.Type
			}
			return raymond.SafeString(strings.Join(parts, ", "))
		},
		"buildUrlParams": func(endpoint, params any) raymond.SafeString {
			url := str(endpoint)
			for _, p := range asParams(params) {
				if p.Source == SourcePath {
					url = strings.ReplaceAll(url, "{"+p.Name+"}", "${"+p.Name+"}")
				}
			}
			return raymond.SafeString(url)
		},
		"hasQueryParams": func(params any) bool {
			return len(paramsFrom(asParams(params), SourceQuery)) > 0
		},
		"getQueryParams": func(params any) []ServiceParameter {
			return paramsFrom(asParams(params), SourceQuery)
		},
		"shouldTransform": func(returnType any) bool {
			t := str(returnType)
			return strings.Contains(t, "Dto") && !strings.Contains(t, "[]") && !strings.Contains(t, "List")
		},
		"isArray": func(returnType any) bool {
			t := str(returnType)
			return strings.Contains(t, "[]") || strings.Contains(t, "List<")
		},
		"getBodyParam": func(params any) raymond.SafeString {
			if body := paramsFrom(asParams(params), SourceBody); len(body) > 0 {
				return raymond.SafeString(body[0].Name)
			}
			return raymond.SafeString("{}")
		},
		"hasBodyParam": func(params any) bool {
			return len(paramsFrom(asParams(params), SourceBody)) > 0
		},
	})
}

func asParams(v any) []ServiceParameter {
	ps, _ := v.([]ServiceParameter)
	return ps
}

func paramsFrom(params []ServiceParameter, source ParamSource) []ServiceParameter {
	var out []ServiceParameter
	for _, p := range params {
		if p.Source == source {
			out = append(out, p)
		}
	}
	return out
}

// Generate renders services/<Name>.ts and, with GenerateDTO, dto/<Entity>Dto.ts.
// Outside dry-run mode the service is also registered in the project's IOC
// files when they exist; failing to do so only logs a warning.
func (g *ServiceGenerator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateOptions(serviceOptions{
		ServiceName: opts.Name,
		EntityName:  opts.Entity,
		EntityType:  opts.EntityType,
	}); err != nil {
		return nil, &util.GeneratorError{Op: KindService, Err: err}
	}
	root, err := outputRoot(opts)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindService, Path: opts.OutputDir, Err: err}
	}

	g.logger.Info("generating service", "name", opts.Name, "entity", opts.Entity)
	data, err := g.templateData(opts, root)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindService, Err: err}
	}

	r := NewRenderer(serviceHelpers(), g.loader)
	res := newResult()

	code, err := r.Render(KindService, "service", data)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindService, Err: err}
	}
	res.add(fmt.Sprintf("services/%s.ts", opts.Name), code)

	if opts.GenerateDTO {
		dto, err := r.Render(KindService, "dto", data)
		if err != nil {
			return nil, &util.GeneratorError{Op: KindService, Err: err}
		}
		res.add(fmt.Sprintf("dto/%sDto.ts", opts.Entity), dto)
	}

	if err := writeResult(root, res, opts.DryRun, g.logger); err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := registerInIOC(root, opts.Name, opts.Entity); err != nil {
			g.logger.Warn("could not register service in IOC container; add the binding manually",
				"service", opts.Name, "error", err)
		} else {
			g.logger.Info("registered service in IOC container", "service", opts.Name)
		}
	}
	return res, nil
}

func (g *ServiceGenerator) templateData(opts Options, root string) (*ServiceData, error) {
	data := &ServiceData{
		ServiceName:   opts.Name,
		EntityName:    opts.Entity,
		EntityType:    opts.EntityType,
		IDType:        opts.IDType,
		Endpoint:      opts.Endpoint,
		CustomMethods: []ServiceMethod{},
		Imports:       defaultServiceImports(opts.EntityType, filepath.Base(root)),
	}
	if data.IDType == "" {
		data.IDType = "string"
	}
	if data.Endpoint == "" {
		data.Endpoint = fmt.Sprintf("/api/v1/%ss", strings.ToLower(opts.Entity))
	}

	if opts.JavaController == "" {
		return data, nil
	}
	code, err := java.ReadController(opts.JavaController)
	if err != nil {
		return nil, err
	}
	analysis := java.Analyze(code)
	if len(analysis.Methods) > 0 {
		data.HasCustomMethods = true
		data.CustomMethods = MapControllerMethods(analysis.Methods, data.Endpoint)
		data.Imports = appendDTOImports(data.Imports, data.CustomMethods, opts.EntityType)
	}
	return data, nil
}

func defaultServiceImports(entityType, projectName string) []string {
	imports := []string{
		"import { injectable, inject } from 'inversify';",
		"import { ArchbaseRemoteApiService, ArchbaseRemoteApiClient, ARCHBASE_IOC_API_TYPE } from '@archbase/react';",
	}
	if entityType != "" {
		imports = append(imports, fmt.Sprintf("import { %s } from '../domain/%s';", entityType, entityType))
	}
	if projectName != "" && projectName != "." && projectName != string(filepath.Separator) {
		imports = append(imports, fmt.Sprintf("import { API_TYPE } from '../ioc/%sIOCTypes';", pascalCase(projectName)))
	}
	return imports
}

var dtoTypeRe = regexp.MustCompile(`(\w+Dto)`)

// appendDTOImports imports every DTO named in a return type except the
// entity type, which is already imported.
func appendDTOImports(imports []string, methods []ServiceMethod, entityType string) []string {
	seen := map[string]bool{}
	for _, imp := range imports {
		seen[imp] = true
	}
	for _, m := range methods {
		match := dtoTypeRe.FindStringSubmatch(m.ReturnType)
		if match == nil || match[1] == entityType {
			continue
		}
		imp := fmt.Sprintf("import { %s } from '../domain/%s';", match[1], match[1])
		if !seen[imp] {
			seen[imp] = true
			imports = append(imports, imp)
		}
	}
	return imports
}
