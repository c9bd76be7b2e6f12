package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/scanner"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Re-analyze files as they change",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period per file before it is re-analyzed (default 1s)",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	path, err := requireArg(c, "path")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	f := st.formatter(c)

	debounce := time.Duration(st.cfg.Watch.DebounceMs) * time.Millisecond
	if c.IsSet("debounce") {
		debounce = c.Duration("debounce")
	}

	p := st.newParser()
	defer p.Close()
	s := scanner.NewProjectScanner(scanner.Options{Parser: p, Logger: st.logger})
	defer s.Close()

	rs, err := scanner.NewRealtimeScanner(s, scanner.RealtimeOptions{
		ProjectPath: path,
		Include:     st.cfg.Scan.Include,
		Exclude:     st.cfg.Scan.Exclude,
		Debounce:    debounce,
		CacheSize:   st.cfg.Watch.CacheSize,
		OnAnalysis: func(fa scanner.FileAnalysis) {
			if err := f.Output(fileAnalysisView(fa)); err != nil {
				st.logger.Warn("render file analysis", "file", fa.File, "error", err)
			}
		},
		Logger: st.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rs.Start(ctx); err != nil {
		return err
	}
	defer rs.Stop()

	if stats := rs.Stats(); stats != nil && !f.Structured() {
		color.New(color.FgCyan).Fprintf(f.Writer(), "Watching %s (%d files, %d components). Press Ctrl+C to stop.\n",
			path, stats.FilesScanned, stats.TotalComponents)
	}

	<-ctx.Done()

	ws := rs.WatchStats()
	if !f.Structured() {
		fmt.Fprintf(f.Writer(), "\nStopped: %d analyzed, %d unchanged, %d removed, %d failed\n",
			ws.Analyzed, ws.Unchanged, ws.Removed, ws.Failed)
	}
	return nil
}
