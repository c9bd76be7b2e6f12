package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/output"
	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/util"
)

var version = "dev"

const stateKey = "state"

// appState is resolved once in Before and shared by every command.
type appState struct {
	cfg    *Config
	logger *slog.Logger
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "archbase",
		Usage:    "Analyze Archbase React projects and generate services, forms and views",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `archbase inspects React components, scans projects for Archbase component
usage and DataSource migration candidates, mines recurring patterns and
generates TypeScript code from Spring controllers and field lists.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (YAML, JSON or TOML). Default .archbase/config.*",
				EnvVars: []string{"ARCHBASE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, yaml, toon",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: loadState,
		Commands: []*cli.Command{
			analyzeCmd(),
			scanCmd(),
			watchCmd(),
			generateCmd(),
			generatorsCmd(),
			validateCmd(),
			serveCmd(),
			setupCmd(),
			initCmd(),
			versionCmd(),
		},
	}
}

func loadState(c *cli.Context) error {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("format"); v != "" {
		cfg.Output.Format = v
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(cfg.Log.Level),
		Format: util.ParseLogFormat(cfg.Log.Format),
		Output: c.App.ErrWriter,
	})
	util.SetDefault(logger)

	c.App.Metadata[stateKey] = &appState{cfg: cfg, logger: logger}
	return nil
}

func stateFrom(c *cli.Context) *appState {
	if st, ok := c.App.Metadata[stateKey].(*appState); ok {
		return st
	}
	return &appState{cfg: DefaultConfig(), logger: slog.Default()}
}

// formatter writes to the app writer so commands can be captured in tests.
func (st *appState) formatter(c *cli.Context) *output.Formatter {
	return output.NewWriterFormatter(output.ParseFormat(st.cfg.Output.Format), c.App.Writer, st.cfg.Output.Color)
}

func (st *appState) newParser() *parser.SourceParser {
	return parser.New(parser.Config{
		StrictParse: st.cfg.Analyzer.StrictParse,
		Logger:      st.logger,
	})
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.Args().Len() < 1 || c.Args().First() == "" {
		return "", &util.CommandError{Op: c.Command.Name, Err: fmt.Errorf("missing %s argument", name)}
	}
	return c.Args().First(), nil
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the archbase version",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "archbase %s\n", version)
			return nil
		},
	}
}
