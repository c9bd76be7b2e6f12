package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/generator"
	"github.com/archbase/archbase-cli/pkg/util"
)

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"g"},
		Usage:     "Generate a service, DTO, form, view or navigation file",
		ArgsUsage: "<kind> <name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "entity", Usage: "Entity name"},
			&cli.StringFlag{Name: "entity-type", Usage: "Service entity DTO type"},
			&cli.StringFlag{Name: "id-type", Usage: "Service id type (default string)"},
			&cli.StringFlag{Name: "endpoint", Usage: "REST endpoint"},
			&cli.StringFlag{Name: "java-controller", Usage: "Spring controller file to derive service methods from"},
			&cli.StringFlag{Name: "fields", Usage: "Comma separated name:type fields, name? marks a field optional"},
			&cli.StringFlag{Name: "validation", Usage: "Validation library: yup, zod, none"},
			&cli.StringFlag{Name: "layout", Usage: "Form layout: vertical, horizontal, grid"},
			&cli.StringFlag{Name: "datasource-version", Usage: "DataSource API: v1, v2"},
			&cli.StringFlag{Name: "category", Usage: "Navigation category"},
			&cli.BoolFlag{Name: "dto", Usage: "Also generate the service DTO"},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory generated files are written under",
			},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the generated code without writing files"},
		},
		Action: runGenerateCmd,
	}
}

func runGenerateCmd(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return &util.CommandError{Op: "generate", Err: errors.New("usage: archbase generate <kind> <name>")}
	}
	kind, name := c.Args().Get(0), c.Args().Get(1)
	st := stateFrom(c)
	gc := st.cfg.Generator

	opts := generator.Options{
		Name:              name,
		OutputDir:         firstNonEmpty(c.String("output"), gc.OutputDir),
		DryRun:            c.Bool("dry-run"),
		Entity:            c.String("entity"),
		EntityType:        c.String("entity-type"),
		IDType:            c.String("id-type"),
		Endpoint:          c.String("endpoint"),
		JavaController:    c.String("java-controller"),
		GenerateDTO:       c.Bool("dto"),
		Fields:            c.String("fields"),
		Validation:        firstNonEmpty(c.String("validation"), gc.Validation),
		Layout:            c.String("layout"),
		DataSourceVersion: firstNonEmpty(c.String("datasource-version"), gc.DataSourceVersion),
		Category:          c.String("category"),
	}

	registry := generator.Default(generator.Config{
		TemplatesDir: gc.TemplatesDir,
		Logger:       st.logger,
	})
	res, err := registry.Generate(c.Context, kind, opts)
	if err != nil {
		return err
	}
	return st.formatter(c).Output(generateView(kind, opts, res))
}

func generatorsCmd() *cli.Command {
	return &cli.Command{
		Name:  "generators",
		Usage: "List the available code generators",
		Action: func(c *cli.Context) error {
			st := stateFrom(c)
			registry := generator.Default(generator.Config{
				TemplatesDir: st.cfg.Generator.TemplatesDir,
				Logger:       st.logger,
			})
			return st.formatter(c).Output(generatorsView(registry))
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
