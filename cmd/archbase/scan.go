package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/output"
	"github.com/archbase/archbase-cli/pkg/patterns"
	"github.com/archbase/archbase-cli/pkg/scanner"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:    "scan",
		Aliases: []string{"s"},
		Usage:   "Scan a project for component usage and recurring patterns",
		Subcommands: []*cli.Command{
			{
				Name:      "project",
				Usage:     "Find Archbase component usages, issues and migration candidates",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "report",
						Usage: "Write a JSON scan report",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report path (default ./archbase-scan-report.json)",
					},
					&cli.StringSliceFlag{
						Name:  "include",
						Usage: "Glob patterns to include",
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Glob patterns to exclude",
					},
					&cli.BoolFlag{
						Name:  "fix",
						Usage: "Apply the suggested fixes for warnings and suggestions",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "With --fix, list fixes without applying them",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of parallel workers (0 = CPU count)",
					},
				},
				Action: runScanProjectCmd,
			},
			{
				Name:      "patterns",
				Usage:     "Detect recurring patterns and recommend templates",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the analysis to this JSON file",
					},
				},
				Action: runScanPatternsCmd,
			},
		},
	}
}

func runScanProjectCmd(c *cli.Context) error {
	path, err := requireArg(c, "path")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	f := st.formatter(c)

	opts := scanner.ScanOptions{
		ProjectPath: path,
		Include:     c.StringSlice("include"),
		Exclude:     c.StringSlice("exclude"),
		Workers:     st.cfg.Scan.Workers,
	}
	if len(opts.Include) == 0 {
		opts.Include = st.cfg.Scan.Include
	}
	if len(opts.Exclude) == 0 {
		opts.Exclude = st.cfg.Scan.Exclude
	}
	if c.IsSet("workers") {
		opts.Workers = c.Int("workers")
	}

	var tracker *output.Tracker
	// The bar draws on stderr, so it is only shown for interactive runs.
	if !f.Structured() && c.App.Writer == os.Stdout {
		tracker = output.NewTracker("Scanning", 1)
		opts.Progress = tracker.Progress
	}

	p := st.newParser()
	defer p.Close()
	s := scanner.NewProjectScanner(scanner.Options{Parser: p, Logger: st.logger})
	defer s.Close()

	result, err := s.Scan(c.Context, opts)
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	var fix *scanner.FixResult
	if c.Bool("fix") {
		r := scanner.AutoFix(result, c.Bool("dry-run"), st.logger)
		fix = &r
	}

	switch {
	case fix != nil && f.Structured():
		// Structured formats get a single document.
		if err := f.Output(map[string]any{"scan": result, "fix": fix}); err != nil {
			return err
		}
	case fix != nil:
		if err := f.Output(scanView(result, f.Colored())); err != nil {
			return err
		}
		fmt.Fprintln(f.Writer())
		if err := f.Output(fixView(*fix, c.Bool("dry-run"))); err != nil {
			return err
		}
	default:
		if err := f.Output(scanView(result, f.Colored())); err != nil {
			return err
		}
	}

	if c.Bool("report") || c.IsSet("output") {
		reportPath := c.String("output")
		if reportPath == "" {
			reportPath = st.cfg.Scan.ReportPath
		}
		report, err := scanner.WriteReport(result, reportPath)
		if err != nil {
			return err
		}
		if !f.Structured() {
			f.Success("Report %s written to %s", report.ID, reportPath)
		}
	}
	return nil
}

func runScanPatternsCmd(c *cli.Context) error {
	path, err := requireArg(c, "path")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	f := st.formatter(c)

	p := st.newParser()
	defer p.Close()
	analyzer := patterns.NewProjectPatternAnalyzer(patterns.Options{
		Parser:  p,
		Workers: st.cfg.Scan.Workers,
		Logger:  st.logger,
	})
	defer analyzer.Close()

	analysis, err := analyzer.Analyze(c.Context, path)
	if err != nil {
		return err
	}
	if err := f.Output(patternsView(analysis)); err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		if err := patterns.Export(analysis, out); err != nil {
			return fmt.Errorf("export patterns: %w", err)
		}
		if !f.Structured() {
			f.Success("Pattern analysis written to %s", out)
		}
	}
	return nil
}
