package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/docs"
	"github.com/archbase/archbase-cli/pkg/java"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Analyze components and controllers",
		Subcommands: []*cli.Command{
			{
				Name:      "component",
				Usage:     "Extract props, imports, hooks and DataSource usage from one component",
				ArgsUsage: "<file>",
				Action:    runAnalyzeComponentCmd,
			},
			{
				Name:      "dir",
				Usage:     "Analyze every component under a directory",
				ArgsUsage: "<dir>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Glob of files to analyze, relative to dir",
					},
				},
				Action: runAnalyzeDirCmd,
			},
			{
				Name:      "java",
				Usage:     "Parse a Spring controller and map its methods to service calls",
				ArgsUsage: "<file|code>",
				Action:    runAnalyzeJavaCmd,
			},
			{
				Name:      "docs",
				Usage:     "Mine markdown documentation for DataSource V2 features, examples and patterns",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the analysis as JSON to this file",
					},
				},
				Action: runAnalyzeDocsCmd,
			},
		},
	}
}

func runAnalyzeComponentCmd(c *cli.Context) error {
	path, err := requireArg(c, "file")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	p := st.newParser()
	defer p.Close()
	analyzer := component.NewAnalyzer(component.Options{Parser: p, Logger: st.logger})
	defer analyzer.Close()

	analysis, err := analyzer.AnalyzeFile(path)
	if err != nil {
		return err
	}
	if analysis == nil {
		return fmt.Errorf("%s could not be parsed", path)
	}
	f := st.formatter(c)
	return f.Output(componentView(analysis, f.Colored()))
}

func runAnalyzeDirCmd(c *cli.Context) error {
	dir, err := requireArg(c, "dir")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	pattern := c.String("pattern")
	if pattern == "" {
		pattern = st.cfg.Analyzer.Pattern
	}

	p := st.newParser()
	defer p.Close()
	analyzer := component.NewAnalyzer(component.Options{
		Parser:  p,
		Workers: st.cfg.Scan.Workers,
		Logger:  st.logger,
	})
	defer analyzer.Close()

	analyses, err := analyzer.AnalyzeDirectory(c.Context, dir, pattern)
	if err != nil {
		return err
	}
	f := st.formatter(c)
	return f.Output(componentsView(analyses, f.Colored()))
}

func runAnalyzeJavaCmd(c *cli.Context) error {
	src, err := requireArg(c, "file|code")
	if err != nil {
		return err
	}
	code, err := java.ReadController(src)
	if err != nil {
		return err
	}
	st := stateFrom(c)
	return st.formatter(c).Output(javaView(java.Analyze(code)))
}

func runAnalyzeDocsCmd(c *cli.Context) error {
	path, err := requireArg(c, "path")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	analyzer := docs.NewAnalyzer(docs.Options{Workers: st.cfg.Scan.Workers, Logger: st.logger})
	defer analyzer.Close()

	analysis, err := analyzer.Analyze(c.Context, path)
	if err != nil {
		return err
	}
	f := st.formatter(c)
	if err := f.Output(docsView(analysis)); err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		if err := docs.Export(analysis, out); err != nil {
			return fmt.Errorf("export docs analysis: %w", err)
		}
		if !f.Structured() {
			f.Success("Documentation analysis written to %s", out)
		}
	}
	return nil
}
