package main

import (
	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/generator"
	"github.com/archbase/archbase-cli/pkg/mcp"
	"github.com/archbase/archbase-cli/pkg/mcplog"
	"github.com/archbase/archbase-cli/pkg/patterns"
	"github.com/archbase/archbase-cli/pkg/scanner"
	"github.com/archbase/archbase-cli/pkg/util"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Append a JSONL record of every tool call to this file",
				EnvVars: []string{"ARCHBASE_MCP_LOG"},
			},
		},
		Action: runServeCmd,
	}
}

func runServeCmd(c *cli.Context) error {
	st := stateFrom(c)

	callLog, err := mcplog.NewLogger(firstNonEmpty(c.String("log-file"), st.cfg.MCP.LogPath))
	if err != nil {
		return err
	}
	defer callLog.Close()

	// Analyzers share one parser pool and one source cache.
	p := st.newParser()
	defer p.Close()
	cache := util.NewSourceCache(util.SourceCacheConfig{
		MaxFiles: util.DefaultSourceCacheConfig().MaxFiles,
		Logger:   st.logger,
	})
	defer cache.Close()

	components := component.NewAnalyzer(component.Options{Parser: p, Cache: cache, Logger: st.logger})
	defer components.Close()
	projectScanner := scanner.NewProjectScanner(scanner.Options{Parser: p, Cache: cache, Logger: st.logger})
	defer projectScanner.Close()
	patternAnalyzer := patterns.NewProjectPatternAnalyzer(patterns.Options{
		Parser:  p,
		Cache:   cache,
		Workers: st.cfg.Scan.Workers,
		Logger:  st.logger,
	})
	defer patternAnalyzer.Close()

	srv := mcp.NewServer(mcp.Config{
		Version:    version,
		Components: components,
		Scanner:    projectScanner,
		Patterns:   patternAnalyzer,
		Generators: generator.Default(generator.Config{
			TemplatesDir: st.cfg.Generator.TemplatesDir,
			Logger:       st.logger,
		}),
		CallLog: callLog,
		Logger:  st.logger,
	})
	defer srv.Close()

	st.logger.Info("starting MCP server", "version", version)
	return srv.ServeStdio()
}
