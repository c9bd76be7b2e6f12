package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default .archbase/config.yaml",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
			&cli.StringFlag{
				Name:  "dir",
				Value: ".",
				Usage: "Project directory",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	path := filepath.Join(c.String("dir"), configDir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	stateFrom(c).formatter(c).Success("Created %s", path)
	return nil
}

func defaultConfigYAML() ([]byte, error) {
	header := []byte("# archbase configuration. Command-line flags override these values.\n")
	body, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("encode default config: %w", err)
	}
	return append(header, body...), nil
}
